package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maintly/maintly/internal/machines"
)

type fakeEffectStore struct {
	updateCalls int
	insertCalls int
	gotFailure  string
	gotRec      Recommendation
	updated     bool
	insertErr   error
	updateErr   error
}

func (s *fakeEffectStore) UpdateFailureType(ctx context.Context, machineID, productID, failureType string) (bool, *time.Time, error) {
	s.updateCalls++
	s.gotFailure = failureType
	return s.updated, nil, s.updateErr
}

func (s *fakeEffectStore) InsertRecommendation(ctx context.Context, machineID string, rec Recommendation) (*machines.Recommendation, error) {
	s.insertCalls++
	s.gotRec = rec
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	return &machines.Recommendation{ID: "rec-1", MachineID: machineID, ActionText: rec.ActionText}, nil
}

type fakeIndexer struct {
	calls int
	err   error
}

func (i *fakeIndexer) IndexRecommendation(ctx context.Context, rec *machines.Recommendation, productID string) error {
	i.calls++
	return i.err
}

var testMachine = &machines.Machine{ID: "id-1", ProductID: "L-47"}

func validRec() *Recommendation {
	return &Recommendation{
		ActionText:  "replace the cutting tool",
		Reason:      "tool wear trending up",
		Confidence:  0.8,
		FailureType: "Tool Wear Failure",
	}
}

func TestApplyEffectsHappyPath(t *testing.T) {
	store := &fakeEffectStore{updated: true}
	idx := &fakeIndexer{}

	out, err := ApplyEffects(context.Background(), store, idx, testMachine, IntentRecommendation, validRec(), true)
	if err != nil {
		t.Fatalf("ApplyEffects: %v", err)
	}
	if !out.Updated || !out.Saved {
		t.Errorf("outcome: %+v", out)
	}
	if store.updateCalls != 1 || store.insertCalls != 1 {
		t.Errorf("calls: update=%d insert=%d", store.updateCalls, store.insertCalls)
	}
	if idx.calls != 1 {
		t.Errorf("indexer calls: %d", idx.calls)
	}
}

func TestApplyEffectsNoTarget(t *testing.T) {
	store := &fakeEffectStore{}

	out, err := ApplyEffects(context.Background(), store, nil, nil, IntentRecommendation, validRec(), true)
	if err != nil {
		t.Fatalf("ApplyEffects: %v", err)
	}
	if out.Saved || out.Updated {
		t.Errorf("no target must mean no effects: %+v", out)
	}
	if store.updateCalls != 0 || store.insertCalls != 0 {
		t.Error("store must not be touched without a target")
	}
}

func TestApplyEffectsWrongIntent(t *testing.T) {
	store := &fakeEffectStore{}

	out, err := ApplyEffects(context.Background(), store, nil, testMachine, IntentExplainRisk, validRec(), true)
	if err != nil {
		t.Fatalf("ApplyEffects: %v", err)
	}
	if out.Saved || out.Updated || store.insertCalls != 0 {
		t.Error("non-recommendation intents never persist")
	}
}

func TestApplyEffectsEmptyFailureTypeSkipsUpdate(t *testing.T) {
	store := &fakeEffectStore{}
	rec := validRec()
	rec.FailureType = "   "

	out, err := ApplyEffects(context.Background(), store, nil, testMachine, IntentRecommendation, rec, true)
	if err != nil {
		t.Fatalf("ApplyEffects: %v", err)
	}
	if store.updateCalls != 0 {
		t.Error("blank failure type must skip the propagation silently")
	}
	if !out.Saved || store.insertCalls != 1 {
		t.Error("the recommendation itself should still be saved")
	}
}

func TestApplyEffectsSaveFalse(t *testing.T) {
	store := &fakeEffectStore{updated: true}

	out, err := ApplyEffects(context.Background(), store, nil, testMachine, IntentRecommendation, validRec(), false)
	if err != nil {
		t.Fatalf("ApplyEffects: %v", err)
	}
	if store.insertCalls != 0 || out.Saved {
		t.Error("save=false must suppress the insert")
	}
	if store.updateCalls != 1 || !out.Updated {
		t.Error("save=false must not suppress the failure-type update")
	}
}

func TestApplyEffectsIndexerFailureIsSoft(t *testing.T) {
	store := &fakeEffectStore{}
	idx := &fakeIndexer{err: errors.New("index offline")}

	out, err := ApplyEffects(context.Background(), store, idx, testMachine, IntentRecommendation, validRec(), true)
	if err != nil {
		t.Fatalf("indexer failures must not fail the request: %v", err)
	}
	if !out.Saved {
		t.Error("save succeeded, outcome should say so")
	}
}

func TestApplyEffectsUpdateFailureAborts(t *testing.T) {
	store := &fakeEffectStore{updateErr: errors.New("tx failed")}

	_, err := ApplyEffects(context.Background(), store, nil, testMachine, IntentRecommendation, validRec(), true)
	if err == nil {
		t.Fatal("expected error from failing update")
	}
	if store.insertCalls != 0 {
		t.Error("insert must not run after a failed update")
	}
}

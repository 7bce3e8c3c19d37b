package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/maintly/maintly/internal/machines"
)

// EffectStore is the write surface the coordinator drives.
type EffectStore interface {
	UpdateFailureType(ctx context.Context, machineID, productID, failureType string) (bool, *time.Time, error)
	InsertRecommendation(ctx context.Context, machineID string, rec Recommendation) (*machines.Recommendation, error)
}

// RecommendationIndexer mirrors saved recommendations into the similarity
// index. Indexing is best effort and never fails a chat request.
type RecommendationIndexer interface {
	IndexRecommendation(ctx context.Context, rec *machines.Recommendation, productID string) error
}

// EffectOutcome reports which side effects a request actually performed.
type EffectOutcome struct {
	Saved   bool
	Updated bool
}

// ApplyEffects runs the post-response side effects for a recommendation
// request: propagating the inferred failure type and persisting the
// recommendation. Effects only fire when the request resolved a target
// machine, the intent is recommendation and a recommendation body exists.
// An empty failure type silently skips the propagation; save=false
// suppresses only the insert.
func ApplyEffects(ctx context.Context, store EffectStore, indexer RecommendationIndexer, target *machines.Machine, intent Intent, rec *Recommendation, save bool) (EffectOutcome, error) {
	var out EffectOutcome
	if target == nil || intent != IntentRecommendation || rec == nil {
		return out, nil
	}

	failureType := strings.TrimSpace(rec.FailureType)
	if failureType != "" {
		updated, _, err := store.UpdateFailureType(ctx, target.ID, target.ProductID, failureType)
		if err != nil {
			return out, err
		}
		out.Updated = updated
	}

	if save {
		saved, err := store.InsertRecommendation(ctx, target.ID, *rec)
		if err != nil {
			return out, err
		}
		out.Saved = true
		if indexer != nil {
			if err := indexer.IndexRecommendation(ctx, saved, target.ProductID); err != nil {
				log.Printf("warning: failed to index recommendation %s: %v", saved.ID, err)
			}
		}
	}

	return out, nil
}

package agent

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/maintly/maintly/internal/apperr"
)

// EngineStore is the storage surface one chat request touches.
type EngineStore interface {
	ContextReader
	TopRiskQuerier
	EffectStore
}

// Engine runs the full chat pipeline: payload validation, the analyze
// phase, window and selection resolution, context assembly, the respond
// phase and finally the side effects.
type Engine struct {
	store        EngineStore
	inference    InferenceService
	indexer      RecommendationIndexer
	policy       Policy
	contextHours int
	anomalyLimit int
	now          func() time.Time
}

// NewEngine creates a chat engine. indexer may be nil to disable the
// similarity index.
func NewEngine(store EngineStore, inference InferenceService, indexer RecommendationIndexer, pol Policy, contextHours, anomalyLimit int) *Engine {
	if contextHours <= 0 {
		contextHours = 72
	}
	if anomalyLimit <= 0 {
		anomalyLimit = 5
	}
	return &Engine{
		store:        store,
		inference:    inference,
		indexer:      indexer,
		policy:       pol,
		contextHours: contextHours,
		anomalyLimit: anomalyLimit,
		now:          time.Now,
	}
}

// ValidatePayload rejects malformed requests before any inference runs.
// A missing message or a half-open range is a payload mistake; an inverted
// explicit range is a violated constraint.
func ValidatePayload(req *ChatRequest) error {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return apperr.Validation("message is required")
	}
	if (req.From == nil) != (req.To == nil) {
		return apperr.Validation("from and to must be provided together")
	}
	if req.From != nil && req.To != nil {
		from, err := parseTimestamp(*req.From)
		if err != nil {
			return err
		}
		to, err := parseTimestamp(*req.To)
		if err != nil {
			return err
		}
		if from.After(to) {
			return apperr.Invariant("invalid window: from %s is after to %s", *req.From, *req.To)
		}
	}
	return nil
}

// Chat processes one operator message end to end.
func (e *Engine) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if err := ValidatePayload(req); err != nil {
		return nil, err
	}

	now := e.now().UTC()

	inf, err := e.inference.Analyze(ctx, req.Message, req, e.policy)
	if err != nil {
		return nil, classify(err)
	}

	window, err := ResolveWindow(now, inf, req, e.policy)
	if err != nil {
		return nil, err
	}

	sel, err := ResolveSelection(ctx, e.store, inf, req, window, e.policy)
	if err != nil {
		return nil, err
	}

	var mctx *MachineContext
	if sel.TargetProductID != nil {
		mctx, err = AssembleContext(ctx, e.store, *sel.TargetProductID, now, e.contextHours, e.anomalyLimit)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, err
			}
			return nil, classify(err)
		}
	}

	resp, err := e.inference.Respond(ctx, req.Message, inf, sel, mctx, e.policy)
	if err != nil {
		return nil, classify(err)
	}
	if resp.Intent != inf.Intent {
		log.Printf("respond phase changed intent from %s to %s", inf.Intent, resp.Intent)
	}

	result := &ChatResult{
		Intent:          inf.Intent,
		TargetProductID: sel.TargetProductID,
		Selection:       sel.Mode,
		Window:          window,
		TopCandidates:   sel.TopCandidates,
		Recommendation:  resp.Recommendation,
		Explanation:     resp.Explanation,
		List:            resp.List,
		QA:              resp.QA,
		Meta:            e.buildMeta(inf, req, window, sel, resp),
		Errors:          append(append([]string{}, inf.Errors...), resp.Errors...),
	}

	if mctx != nil {
		outcome, err := ApplyEffects(ctx, e.store, e.indexer, &mctx.Machine, inf.Intent, resp.Recommendation, req.SaveRequested())
		if err != nil {
			return nil, classify(err)
		}
		result.Saved = outcome.Saved
		result.Updated = outcome.Updated
	}

	return result, nil
}

// buildMeta reports requested vs applied parameters. The applied values are
// always the server-resolved ones, never whatever the model echoed back.
func (e *Engine) buildMeta(inf *Inference, req *ChatRequest, window WindowSpec, sel Selection, resp *ResponseResult) Meta {
	requested := window.Requested
	requested.TopK = firstDefined(inf.requested().TopK, inf.TopK, req.TopK)
	requested.ProductIDs = collectExplicitIDs(req, inf)

	applied := window.Applied
	if sel.Mode != SelectionNone {
		topK := sel.AppliedTopK
		applied.TopK = &topK
	}

	notes := resp.Meta.Notes
	if notes == "" {
		notes = inf.Meta.Notes
	}

	return Meta{Requested: &requested, Applied: &applied, Notes: notes}
}

// classify passes through already-classified errors and treats everything
// else as an infrastructure failure.
func classify(err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Unavailable(err)
}

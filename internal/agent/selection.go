package agent

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/maintly/maintly/internal/apperr"
)

// TopRiskQuerier lists the highest-risk machines within a window, ordered by
// descending risk score with ties broken by most recent prediction timestamp.
type TopRiskQuerier interface {
	ListTopRisk(ctx context.Context, from, to time.Time, limit int) ([]RiskCandidate, error)
}

// ResolveSelection decides which machine(s), if any, the request targets.
// It is the only pre-context storage read and runs once per request.
func ResolveSelection(ctx context.Context, q TopRiskQuerier, inf *Inference, req *ChatRequest, win WindowSpec, pol Policy) (Selection, error) {
	if inf.Intent == IntentQA {
		return Selection{Mode: SelectionNone, Window: win}, nil
	}

	explicit := collectExplicitIDs(req, inf)
	if len(explicit) > 0 {
		// Only one unit is resolved no matter how many were named.
		target := explicit[0]
		return Selection{
			Mode:            SelectionExplicit,
			TargetProductID: &target,
			RequestedTopK:   len(explicit),
			AppliedTopK:     1,
			Window:          win,
		}, nil
	}

	if inf.AutoPick || inf.Intent == IntentListTopRisky {
		topKHint := firstDefined(inf.requested().TopK, inf.TopK, req.TopK)
		applied := pol.ClampTopK(topKHint)

		candidates, err := q.ListTopRisk(ctx, win.From, win.To, applied)
		if err != nil {
			return Selection{}, apperr.Unavailable(err)
		}
		if len(candidates) == 0 {
			return Selection{}, apperr.Invariant("no machines with risk data in the selected window")
		}

		requested := applied
		// Report the raw hint only when it fits an int; NaN fails the
		// comparison and falls through to the applied value.
		if topKHint != nil && math.Abs(*topKHint) < math.MaxInt32 {
			requested = int(*topKHint)
		}
		target := candidates[0].ProductID
		return Selection{
			Mode:            SelectionAuto,
			TargetProductID: &target,
			RequestedTopK:   requested,
			AppliedTopK:     applied,
			Window:          win,
			TopCandidates:   candidates,
		}, nil
	}

	return Selection{Mode: SelectionNone, Window: win}, nil
}

// collectExplicitIDs gathers product ids from the payload, the inference
// output and the inference's requested meta, deduplicated in first-seen order.
func collectExplicitIDs(req *ChatRequest, inf *Inference) []string {
	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if req.ProductID != nil {
		add(*req.ProductID)
	}
	for _, id := range inf.ProductIDs {
		add(id)
	}
	for _, id := range inf.requested().ProductIDs {
		add(id)
	}
	return ids
}

package agent

import (
	"time"

	"github.com/maintly/maintly/internal/apperr"
)

// firstDefined returns the first non-nil value from the ordered sources,
// or nil when every source is absent.
func firstDefined[T any](sources ...*T) *T {
	for _, s := range sources {
		if s != nil {
			return s
		}
	}
	return nil
}

// timestampLayouts are the accepted wire formats for window bounds.
var timestampLayouts = []string{time.RFC3339, "2006-01-02"}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Invariant("invalid timestamp %q: use RFC 3339 or YYYY-MM-DD", value)
}

// ResolveWindow derives the request's time window. Each field resolves via
// the first-defined rule: inference meta.requested, then the top-level
// inference field, then the raw payload field. When both bounds resolve the
// result is an explicit range; otherwise a rolling window ending at now,
// clamped by the policy.
func ResolveWindow(now time.Time, inf *Inference, req *ChatRequest, pol Policy) (WindowSpec, error) {
	hinted := inf.requested()

	fromHint := firstDefined(hinted.From, inf.From, req.From)
	toHint := firstDefined(hinted.To, inf.To, req.To)
	daysHint := firstDefined(hinted.WindowDays, inf.WindowDays, req.WindowDays)

	requested := RequestedParams{
		WindowDays: daysHint,
		From:       fromHint,
		To:         toHint,
	}

	if fromHint != nil && toHint != nil {
		from, err := parseTimestamp(*fromHint)
		if err != nil {
			return WindowSpec{}, err
		}
		to, err := parseTimestamp(*toHint)
		if err != nil {
			return WindowSpec{}, err
		}
		if from.After(to) {
			return WindowSpec{}, apperr.Invariant("invalid window: from %s is after to %s", *fromHint, *toHint)
		}
		fromStr, toStr := from.Format(time.RFC3339), to.Format(time.RFC3339)
		return WindowSpec{
			Kind:      WindowRange,
			From:      from,
			To:        to,
			Requested: requested,
			Applied:   AppliedParams{From: &fromStr, To: &toStr},
		}, nil
	}

	days := pol.ClampWindowDays(daysHint)
	to := now.UTC()
	from := to.AddDate(0, 0, -days)
	fromStr, toStr := from.Format(time.RFC3339), to.Format(time.RFC3339)
	return WindowSpec{
		Kind:       WindowRolling,
		From:       from,
		To:         to,
		WindowDays: days,
		Requested:  requested,
		Applied:    AppliedParams{WindowDays: &days, From: &fromStr, To: &toStr},
	}, nil
}

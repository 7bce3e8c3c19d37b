package machines

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maintly/maintly/internal/apperr"
)

// RegisterRoutes mounts the machines read API.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/machines", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/{productID}", handleGet(store))
		r.Get("/{productID}/sensors", handleSensors(store))
		r.Get("/{productID}/predictions", handlePredictions(store))
		r.Get("/{productID}/anomalies", handleAnomalies(store))
		r.Get("/{productID}/recommendations", handleRecommendations(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if list == nil {
			list = []Machine{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.GetByProductID(r.Context(), chi.URLParam(r, "productID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func handleSensors(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := HistoryOptions{Agg: r.URL.Query().Get("agg")}

		from, err := parseTimeParam(r, "from")
		if err != nil {
			writeError(w, err)
			return
		}
		to, err := parseTimeParam(r, "to")
		if err != nil {
			writeError(w, err)
			return
		}
		opts.From, opts.To = from, to

		machine, points, err := store.SensorHistory(r.Context(), chi.URLParam(r, "productID"), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		if points == nil {
			points = []SensorPoint{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"machine": machine, "points": points})
	}
}

func handlePredictions(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := parseTimeParam(r, "from")
		if err != nil {
			writeError(w, err)
			return
		}
		to, err := parseTimeParam(r, "to")
		if err != nil {
			writeError(w, err)
			return
		}

		machine, points, err := store.PredictionHistory(r.Context(), chi.URLParam(r, "productID"), from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		if points == nil {
			points = []Prediction{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"machine": machine, "points": points})
	}
}

func handleAnomalies(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		machine, anomalies, err := store.Anomalies(r.Context(), chi.URLParam(r, "productID"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if anomalies == nil {
			anomalies = []Anomaly{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"machine": machine, "anomalies": anomalies})
	}
}

func handleRecommendations(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, recs, err := store.Recommendations(r.Context(), chi.URLParam(r, "productID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if recs == nil {
			recs = []Recommendation{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"machine": machine, "recommendations": recs})
	}
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Invariant("invalid %s parameter %q", name, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.ClientMessage(err)})
}

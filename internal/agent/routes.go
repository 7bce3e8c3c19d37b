package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/maintly/maintly/internal/apperr"
)

// SimilarHit is one match from the recommendation similarity index.
type SimilarHit struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ActionText  string  `json:"action_text"`
	Reason      string  `json:"reason"`
	FailureType string  `json:"failure_type"`
	Similarity  float32 `json:"similarity"`
}

// SimilarityIndex searches previously saved recommendations by meaning.
type SimilarityIndex interface {
	SearchSimilar(ctx context.Context, query string, limit int) ([]SimilarHit, error)
}

// RegisterRoutes mounts the agent API: the chat endpoint, the similarity
// search and the WebSocket chat channel. memory may be nil when the
// similarity index is disabled.
func RegisterRoutes(r chi.Router, engine *Engine, memory SimilarityIndex) {
	r.Route("/api/agent", func(r chi.Router) {
		r.Post("/chat", handleChat(engine))
		r.Get("/recommendations/similar", handleSimilar(memory))
	})
	r.Get("/ws/agent", handleWebSocket(engine))
}

func handleChat(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("invalid JSON body: %v", err))
			return
		}

		result, err := engine.Chat(r.Context(), &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleSimilar(memory SimilarityIndex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if memory == nil {
			writeError(w, apperr.Invariant("recommendation similarity search is disabled"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeError(w, apperr.Validation("q parameter is required"))
			return
		}

		limit := 5
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 20 {
				limit = n
			}
		}

		hits, err := memory.SearchSimilar(r.Context(), query, limit)
		if err != nil {
			writeError(w, apperr.Unavailable(err))
			return
		}
		if hits == nil {
			hits = []SimilarHit{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": hits})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.ClientMessage(err)})
}

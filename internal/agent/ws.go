package agent

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/maintly/maintly/internal/apperr"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format. The payload mirrors
// the HTTP chat body.
type wsRequest struct {
	Type    string      `json:"type"` // "chat"
	Payload ChatRequest `json:"payload"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type   string      `json:"type"` // "result" or "error"
	Result *ChatResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func handleWebSocket(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("agent: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("agent: websocket read: %v", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendWS(conn, wsResponse{Type: "error", Error: "invalid message format"})
				continue
			}
			if req.Type != "chat" {
				sendWS(conn, wsResponse{Type: "error", Error: "unknown message type: " + req.Type})
				continue
			}

			result, err := engine.Chat(r.Context(), &req.Payload)
			if err != nil {
				sendWS(conn, wsResponse{Type: "error", Error: apperr.ClientMessage(err)})
				continue
			}
			sendWS(conn, wsResponse{Type: "result", Result: result})
		}
	}
}

func sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("agent: websocket write: %v", err)
	}
}

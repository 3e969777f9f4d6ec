package debug

import (
	"encoding/json"
	"log"
	"net/http"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/debugbus"

	"github.com/gorilla/websocket"
)

// GetLogsHandler returns the retained API call log, newest first.
func GetLogsHandler(rec *debugbus.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, err := auth.GetUserIDFromToken(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		entries := rec.Snapshot()
		if entries == nil {
			entries = []debugbus.Entry{}
		}
		json.NewEncoder(w).Encode(entries)
	}
}

// ClearLogsHandler empties the retained API call log. The live feed is
// unaffected; new calls keep streaming.
func ClearLogsHandler(rec *debugbus.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, err := auth.GetUserIDFromToken(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		rec.Clear()
		json.NewEncoder(w).Encode(map[string]string{"message": "Logs cleared"})
	}
}

// HandleDebugWebSocket streams every bus entry to the connected client as
// it is published. Browsers cannot set headers on websocket requests, so
// the JWT travels as a query parameter.
func HandleDebugWebSocket(bus *debugbus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		mockReq := &http.Request{
			Header: http.Header{
				"Authorization": []string{"Bearer " + token},
			},
		}

		userID, err := auth.GetUserIDFromToken(mockReq)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		upgrader := websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		data, _ := json.Marshal(map[string]string{"type": "connected"})
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			return
		}

		// WriteJSON is not safe for concurrent use, and Publish may fire
		// from any goroutine. Funnel entries through a channel owned by a
		// single writer.
		feed := make(chan debugbus.Entry, 16)
		done := make(chan struct{})
		subID := bus.Subscribe(func(e debugbus.Entry) {
			select {
			case feed <- e:
			default:
				// Slow consumer, drop rather than stall the bus.
			}
		})

		go func() {
			for {
				select {
				case e := <-feed:
					if err := conn.WriteJSON(e); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		defer func() {
			bus.Unsubscribe(subID)
			close(done)
			conn.Close()
			log.Printf("Debug feed closed for user %d", userID)
		}()

		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				break
			}

			if messageType == websocket.PingMessage {
				if err := conn.WriteMessage(websocket.PongMessage, nil); err != nil {
					break
				}
			}
		}
	}
}

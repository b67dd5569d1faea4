package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"familysafe/internal/apperr"
	"familysafe/internal/realtime"
	"familysafe/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// RealtimeHandler upgrades websocket connections and streams row-change
// events scoped to the caller's family graph. Connections authenticate with
// a short-lived token minted over the cookie-authenticated endpoint, since
// cookies do not ride along on cross-origin upgrades.
type RealtimeHandler struct {
	hub      *realtime.Hub
	streams  *service.StreamService
	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(hub *realtime.Hub, streams *service.StreamService) *RealtimeHandler {
	return &RealtimeHandler{
		hub:     hub,
		streams: streams,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Token mints a stream token for the logged-in caller
func (h *RealtimeHandler) Token(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	token, err := h.streams.IssueToken(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Stream upgrades the connection and forwards matching events until the
// client goes away.
func (h *RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, err := h.streams.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		respondError(w, err)
		return
	}

	filters, err := h.streams.FiltersFor(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(filters) == 0 {
		respondError(w, apperr.New(apperr.KindPermission, "nothing to subscribe to"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	sub := h.hub.Subscribe(filters...)
	defer h.hub.Unsubscribe(sub)
	defer conn.Close()

	// Reader drains control frames and signals when the client hangs up.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

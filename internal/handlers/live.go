package handlers

import (
	"log"
	"net/http"
	"time"

	"threadkit/internal/middleware"
	"threadkit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	liveWriteTimeout = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// LiveHandler streams a viewer's session events (refreshing, refreshed, failed)
// so an open page can show the reconciling indicator and reload the thread.
type LiveHandler struct {
	sessions *services.SessionRegistry
	upgrader websocket.Upgrader
}

func NewLiveHandler(sessions *services.SessionRegistry) *LiveHandler {
	return &LiveHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

func (h *LiveHandler) Stream(c *gin.Context) {
	root, ok := rootParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_discussion", "invalid discussion")
		return
	}
	sess := h.sessions.Get(middleware.ViewerID(c))

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[live] upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	events, cancel := sess.Subscribe()
	defer cancel()

	// reader: only close frames and pongs are expected
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Root != root.String() {
				continue
			}
			ws.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/shelfclub/internal/app/models"
)

// Handler upgrades authorized requests to club event feed connections
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// SnapshotFunc builds the first event a new subscriber receives
type SnapshotFunc func() (*models.ClubEvent, error)

// Connect upgrades the request and subscribes the caller to clubID's events.
// Callers must have authorized the user already. The client is registered
// before snapshot runs, so every event committed after the snapshot was read
// reaches it; events queued while the snapshot was built follow it and may
// already be reflected in it.
func (h *Handler) Connect(c *gin.Context, clubID, userID int64, snapshot SnapshotFunc) error {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		clubID: clubID,
		logger: h.logger,
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return errors.New("websocket hub stopped")
	}

	if snapshot != nil {
		if client.first, err = buildSnapshot(snapshot); err != nil {
			select {
			case h.hub.unregister <- client:
			case <-h.hub.done:
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"),
				time.Now().Add(writeWait))
			conn.Close()
			return err
		}
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("clubID", clubID).
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
	return nil
}

func buildSnapshot(snapshot SnapshotFunc) ([]byte, error) {
	event, err := snapshot()
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	if event == nil {
		return nil, nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/formbox/formbox-backend/internal/config"
	"github.com/formbox/formbox-backend/internal/middleware"
	"github.com/formbox/formbox-backend/internal/service"
	ws "github.com/formbox/formbox-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the live response stream for form owners.
type WSHandler struct {
	rdb         *redis.Client
	formService *service.FormService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, formService *service.FormService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		formService: formService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ResponseStream godoc
// WS /ws/v1/forms/:form_id/responses/stream
// Upgrades to WebSocket and forwards new-response events for the form as
// they are published by the submission path.
func (h *WSHandler) ResponseStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	formID, err := strconv.ParseInt(c.Param("form_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form ID"})
		return
	}

	// Ownership check happens before the upgrade so the client gets a
	// proper HTTP status instead of a dropped socket.
	doc, err := h.formService.Get(c.Request.Context(), formID, claims.OperatorID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your form"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("operator_id", claims.OperatorID).
		Int64("form_id", doc.ID).
		Logger()

	wsLog.Info().Msg("Operator connected to response stream")

	sub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.ResponseStreamChannel(doc.ID))
	defer sub.Close()

	// Reader goroutine: the only traffic we expect from the client is
	// ping, but reading also detects the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}

			switch msg.Action {
			case ws.ActionPing:
				if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
					return
				}
			default:
				wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
				_ = ws.WriteError(conn, "unknown action: "+string(msg.Action))
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event ws.NewResponseEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed stream event")
				continue
			}
			if err := ws.WriteTyped(conn, event); err != nil {
				wsLog.Debug().Err(err).Msg("Stream write failed")
				return
			}
		}
	}
}

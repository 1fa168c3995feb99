package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cryptex/internal/events"
	"cryptex/internal/transport/httpdto"
	cryptex_errors "cryptex/pkg/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades subscribe requests and runs the session lifecycle.
type Handler struct {
	broker events.Broker
	logger *Logger
}

func NewHandler(broker events.Broker, logger *Logger) *Handler {
	return &Handler{broker: broker, logger: logger}
}

// TradeChannel handles /ws/trade/:trade_id/
func (h *Handler) TradeChannel(c *gin.Context) {
	h.serve(c, c.Param("trade_id"), "")
}

// VendorChannel handles /ws/vendor/:vendor_id/
func (h *Handler) VendorChannel(c *gin.Context) {
	h.serve(c, "", c.Param("vendor_id"))
}

func (h *Handler) serve(c *gin.Context, tradeID, vendorID string) {
	room, err := ResolveRoom(tradeID, vendorID)
	if err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("no such channel", "HANDSHAKE_REJECTED"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", room, "", err)
		return
	}

	client := NewClient(conn, room, h.broker, h.logger)
	if err := h.broker.Join(room, client); err != nil {
		h.logger.Error("room join failed", room, client.ID(), err)
		conn.Close()
		return
	}

	h.logger.Info("client connected", room, client.ID())

	// The request context dies with this handler; the session outlives
	// the upgrade and manages its own lifetime.
	client.Run(context.Background())
}

// ResolveRoom maps the path-derived keys to a room name. Exactly one of
// the two must be set; anything else rejects the handshake.
func ResolveRoom(tradeID, vendorID string) (string, error) {
	switch {
	case tradeID != "" && vendorID == "":
		return events.TradeRoom(tradeID), nil
	case vendorID != "" && tradeID == "":
		return events.VendorRoom(vendorID), nil
	default:
		return "", cryptex_errors.ErrInvalidInput
	}
}

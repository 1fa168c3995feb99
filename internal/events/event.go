package events

import (
	"encoding/json"
	"fmt"
)

// Room name prefixes. A room groups the subscribers of one trade or of
// one vendor's activity feed.
const (
	tradeRoomPrefix  = "trade:"
	vendorRoomPrefix = "vendor:"
)

func TradeRoom(tradeID string) string {
	return tradeRoomPrefix + tradeID
}

func VendorRoom(vendorID string) string {
	return vendorRoomPrefix + vendorID
}

// Event is one unit of realtime information published into a room.
// Events are immutable once published; the broker only routes them.
// Encode produces the wire frame delivered to subscribers.
type Event interface {
	Encode() ([]byte, error)
}

// ChatMessage is an inbound payload that declared type "chat_message".
// The decoded structure is kept whole so the wire frame echoes exactly
// what the sender wrote; the named fields are conveniences for logging
// and downstream consumers.
type ChatMessage struct {
	Sender        string
	Recipient     string
	TransactionID string
	Content       string
	CreatedAt     string

	payload map[string]any
}

func (e ChatMessage) Encode() ([]byte, error) {
	return json.Marshal(e.payload)
}

// TradeMessage is opaque trade traffic: either raw text that did not
// decode, or a decoded structure with some other declared type,
// re-encoded. Raw is delivered verbatim.
type TradeMessage struct {
	Raw []byte
}

func (e TradeMessage) Encode() ([]byte, error) {
	return e.Raw, nil
}

// TradeCreated announces a new trade to its vendor's room.
type TradeCreated struct {
	Trade json.RawMessage
}

func (e TradeCreated) Encode() ([]byte, error) {
	return json.Marshal(struct {
		Type  string          `json:"type"`
		Trade json.RawMessage `json:"trade"`
	}{
		Type:  "trade_started",
		Trade: e.Trade,
	})
}

// TradeCancelled tells a trade's room the trade was cancelled, either
// by a user through the API or by the stale-trade reaper.
type TradeCancelled struct {
	CancelledBy string
	TradeID     string
	Message     string
}

func (e TradeCancelled) Encode() ([]byte, error) {
	return json.Marshal(struct {
		Type        string `json:"type"`
		CancelledBy string `json:"cancelled_by"`
		TradeID     string `json:"trade_id"`
		Message     string `json:"message"`
	}{
		Type:        "transaction_cancelled",
		CancelledBy: e.CancelledBy,
		TradeID:     e.TradeID,
		Message:     e.Message,
	})
}

// CancelledMessage is the human-readable text carried by TradeCancelled.
func CancelledMessage(tradeID string) string {
	return fmt.Sprintf("Transaction %s has been cancelled.", tradeID)
}

// Classify resolves a raw inbound payload to an event in a single step.
// Malformed input is not an error: it degrades to an opaque TradeMessage
// delivered verbatim. A decoded payload is a ChatMessage only when it
// declares type "chat_message"; any other shape is re-encoded trade
// traffic.
func Classify(raw []byte) Event {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return TradeMessage{Raw: append([]byte(nil), raw...)}
	}

	if t, _ := payload["type"].(string); t == "chat_message" {
		return ChatMessage{
			Sender:        stringField(payload, "sender"),
			Recipient:     stringField(payload, "recipient"),
			TransactionID: stringField(payload, "transaction_id"),
			Content:       stringField(payload, "content"),
			CreatedAt:     stringField(payload, "created_at"),
			payload:       payload,
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return TradeMessage{Raw: append([]byte(nil), raw...)}
	}
	return TradeMessage{Raw: encoded}
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

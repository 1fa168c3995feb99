package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"cryptex/internal/domain"
	"cryptex/internal/events"
)

// Notifier is the funnel between the transaction layer and the room
// broker. Both cancellation paths — user-initiated through the API and
// the stale-trade reaper — go through NotifyCancelled so subscribers
// see one event shape regardless of who cancelled.
type Notifier struct {
	broker events.Broker
}

func New(broker events.Broker) *Notifier {
	return &Notifier{broker: broker}
}

// NotifyCancelled publishes a TradeCancelled event into the trade's
// room. cancelledBy is "user" for API cancellations and "system" for
// the reaper.
func (n *Notifier) NotifyCancelled(ctx context.Context, tradeID string, cancelledBy string) {
	n.broker.Publish(ctx, events.TradeRoom(tradeID), events.TradeCancelled{
		CancelledBy: cancelledBy,
		TradeID:     tradeID,
		Message:     events.CancelledMessage(tradeID),
	})
}

// NotifyCreated announces a freshly created trade to the vendor's room
// with a full trade snapshot.
func (n *Notifier) NotifyCreated(ctx context.Context, t domain.Transaction) error {
	snapshot, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade snapshot: %w", err)
	}
	n.broker.Publish(ctx, events.VendorRoom(t.VendorID.String()), events.TradeCreated{
		Trade: snapshot,
	})
	return nil
}

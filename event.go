package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gofreshmart.io/market/models"
	"gofreshmart.io/market/models/enum"
	"gofreshmart.io/market/notification"
)

const eventSubjectPrefix = "market.events."

type EventHandler func(context.Context, *models.Event) error

// EventManager fans marketplace events out over NATS and dispatches inbound
// events to their registered handlers. Event ids are remembered so redelivery
// does not run a handler twice.
type EventManager struct {
	natsConn *nats.Conn
	handlers map[enum.EventType]EventHandler
	logger   *zap.Logger

	mu        sync.Mutex
	processed map[string]struct{}
}

func NewEventManager(natsConn *nats.Conn, logger *zap.Logger) *EventManager {
	return &EventManager{
		natsConn:  natsConn,
		handlers:  make(map[enum.EventType]EventHandler),
		logger:    logger,
		processed: make(map[string]struct{}),
	}
}

func (em *EventManager) RegisterHandler(eventType enum.EventType, handler EventHandler) {
	em.handlers[eventType] = handler
}

func (em *EventManager) GetHandler(eventType enum.EventType) (EventHandler, bool) {
	handler, exists := em.handlers[eventType]
	return handler, exists
}

// Publish serializes the payload into an event and publishes it on the
// subject for its type.
func (em *EventManager) Publish(eventType enum.EventType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	event := models.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := em.natsConn.Publish(eventSubjectPrefix+string(eventType), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// SubscribeToEvents feeds every marketplace event into the worker pool.
func (em *EventManager) SubscribeToEvents(wp *WorkerPool) error {
	_, err := em.natsConn.Subscribe(eventSubjectPrefix+">", func(msg *nats.Msg) {
		var event models.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			em.logger.Error("Failed to unmarshal event", zap.Error(err))
			return
		}

		wp.Submit(context.Background(), &event)
	})

	return err
}

// markProcessed records the event id, reporting whether it was seen before.
func (em *EventManager) markProcessed(id string) bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	if _, seen := em.processed[id]; seen {
		return false
	}
	em.processed[id] = struct{}{}
	return true
}

func (s *service) registerEventHandlers() {
	eventHandlers := map[enum.EventType]EventHandler{
		enum.EventTypeCartChanged:        s.handleCartChanged,
		enum.EventTypeOrderCreated:       s.handleOrderCreated,
		enum.EventTypeOrderStatusChanged: s.handleOrderStatusChanged,
	}

	for eventType, handler := range eventHandlers {
		s.eventManager.RegisterHandler(eventType, handler)
	}
}

// ProcessEvent dispatches one event to its handler, skipping ids that were
// already processed.
func (s *service) ProcessEvent(ctx context.Context, event *models.Event) error {
	if !s.eventManager.markProcessed(event.ID) {
		s.logger.Info("Event already processed", zap.String("event_id", event.ID))
		return nil
	}

	handler, exists := s.eventManager.GetHandler(event.Type)
	if !exists {
		return fmt.Errorf("no handler registered for event type: %s", event.Type)
	}

	if err := handler(ctx, event); err != nil {
		s.logger.Error("Failed to handle event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func (s *service) handleCartChanged(_ context.Context, event *models.Event) error {
	var payload models.CartEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal cart payload: %w", err)
	}

	s.logger.Debug("Cart changed",
		zap.String("user_id", payload.UserID),
		zap.Uint64("total_items", payload.TotalItems))
	return nil
}

// handleOrderCreated alerts every seller whose products appear in the new
// order. The buyer hears about the order through status changes.
func (s *service) handleOrderCreated(ctx context.Context, event *models.Event) error {
	var payload models.OrderEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal order payload: %w", err)
	}

	sellers, err := s.orderSellers(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	for _, sellerID := range sellers {
		n := notification.NewOrderReceived(uuid.NewString(), sellerID, payload.OrderID, payload.Total)
		if err := s.notification.Create(ctx, nil, n); err != nil {
			return fmt.Errorf("create order-received notification: %w", err)
		}
	}

	s.logger.Info("Order created",
		zap.String("order_id", payload.OrderID),
		zap.String("buyer_id", payload.BuyerID),
		zap.Int("sellers_notified", len(sellers)))
	return nil
}

func (s *service) handleOrderStatusChanged(ctx context.Context, event *models.Event) error {
	var payload models.OrderEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal order payload: %w", err)
	}

	n := notificationStatusChanged(payload)
	if err := s.notification.Create(ctx, nil, n); err != nil {
		return fmt.Errorf("create status-changed notification: %w", err)
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", payload.OrderID),
		zap.String("status", string(payload.Status)))
	return nil
}

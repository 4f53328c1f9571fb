package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/denver-kabob/internal/cache"
	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/models"
)

// pub/sub channel shared by every api instance
const fanoutChannel = "realtime:events"

const publishTimeout = 3 * time.Second

// Broker publishes events to every instance's hub
type Broker struct {
	hub *Hub
}

// NewBroker wraps hub
func NewBroker(hub *Hub) *Broker {
	return &Broker{hub: hub}
}

// Hub returns the local hub
func (b *Broker) Hub() *Hub {
	return b.hub
}

// Publish sends one event on topic, through redis when enabled
func (b *Broker) Publish(ctx context.Context, topic, eventType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := Event{Type: eventType, Payload: raw}
	if cache.Enabled() {
		data, err := json.Marshal(topicEvent{Topic: topic, Event: event})
		if err != nil {
			return err
		}
		if err := cache.Publish(ctx, fanoutChannel, data); err == nil {
			return nil
		}
		logger.Warnw("realtime_publish_failed", "topic", topic, "event", eventType, "error", err)
	}
	if !b.hub.Broadcast(ctx, topic, event) {
		logger.Debugw("realtime_event_dropped", "topic", topic, "event", eventType)
	}
	return nil
}

// CartChanged pushes the new cart contents to the cart's listeners
func (b *Broker) CartChanged(cartID string, items []cart.Item) error {
	if items == nil {
		items = []cart.Item{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return b.Publish(ctx, constants.CartTopic(cartID), constants.EventCartUpdated, map[string]interface{}{
		"cart_id":    cartID,
		"items":      items,
		"item_count": cart.Count(items),
		"subtotal":   cart.Subtotal(items).StringFixed(2),
	})
}

// OrderChanged pushes an order event to the admin board
func (b *Broker) OrderChanged(ctx context.Context, eventType string, order *models.Order) error {
	if order == nil {
		return nil
	}
	return b.Publish(ctx, constants.TopicAdminOrders, eventType, order)
}

// relay copies redis messages into the local hub until ctx ends
func (b *Broker) relay(ctx context.Context) {
	sub := cache.Subscribe(ctx, fanoutChannel)
	if sub == nil {
		return
	}
	defer func() {
		_ = sub.Close()
	}()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var incoming topicEvent
			if err := json.Unmarshal([]byte(msg.Payload), &incoming); err != nil {
				logger.Warnw("realtime_relay_decode_failed", "error", err)
				continue
			}
			b.hub.Broadcast(ctx, incoming.Topic, incoming.Event)
		}
	}
}

// Service runs the hub and the redis relay
type Service struct {
	broker *Broker
}

// NewService builds the realtime service for broker
func NewService(broker *Broker) *Service {
	return &Service{broker: broker}
}

// Name realtime
func (s *Service) Name() string {
	return "realtime"
}

// Start blocks until ctx ends
func (s *Service) Start(ctx context.Context) error {
	if cache.Enabled() {
		go s.broker.relay(ctx)
	}
	s.broker.hub.Run(ctx)
	return nil
}

// Stop is a no-op, Start returns when its context ends
func (s *Service) Stop(ctx context.Context) error {
	return nil
}

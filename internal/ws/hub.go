// internal/ws/hub.go
package ws

import (
	"context"
	"encoding/json"

	"tafiti-service/internal/domain/event"
	"tafiti-service/internal/eventbus"

	"go.uber.org/zap"
)

// frame is what dashboard clients receive on the ops feed.
type frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type outbound struct {
	tenantID int64
	payload  []byte
}

// Hub fans domain events out to connected dashboard sockets. Each
// client only receives frames for its own tenant.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		logger:     logger,
	}
}

// Run owns the client set. Single goroutine, started by the server.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				if c.tenantID != msg.tenantID {
					continue
				}
				select {
				case c.send <- msg.payload:
				default:
					// Slow consumer; drop it rather than block the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// SubscribeBus wires the hub to the domain events worth surfacing on
// the live dashboard.
func (h *Hub) SubscribeBus(bus *eventbus.Bus) {
	bus.Subscribe(event.NamePaymentSucceeded, "ws.feed", func(_ context.Context, evt event.Event) error {
		e, ok := evt.(event.PaymentSucceeded)
		if !ok {
			return nil
		}
		h.publish(e.TenantID, evt)
		return nil
	})
	bus.Subscribe(event.NameRewardDisbursed, "ws.feed", func(_ context.Context, evt event.Event) error {
		e, ok := evt.(event.RewardDisbursed)
		if !ok {
			return nil
		}
		h.publish(e.TenantID, evt)
		return nil
	})
	bus.Subscribe(event.NameBusinessTransactionReceived, "ws.feed", func(_ context.Context, evt event.Event) error {
		e, ok := evt.(event.BusinessTransactionReceived)
		if !ok {
			return nil
		}
		h.publish(e.TenantID, evt)
		return nil
	})
}

func (h *Hub) publish(tenantID int64, evt event.Event) {
	payload, err := json.Marshal(frame{Event: evt.Name(), Data: evt})
	if err != nil {
		h.logger.Error("could not marshal feed frame", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{tenantID: tenantID, payload: payload}:
	default:
		h.logger.Warn("feed broadcast queue full, dropping frame",
			zap.String("event", evt.Name()),
		)
	}
}

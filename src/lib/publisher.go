package lib

import (
	"log"

	"hms/src/allocator"
)

// KafkaEventPublisher writes committed allocation events to the module's
// topic (beds-events, ot-events, bloodbank-events). Produce runs in a
// goroutine so a slow broker never holds up a clinical request.
type KafkaEventPublisher struct {
	ClientID string
}

func (p *KafkaEventPublisher) Publish(ev allocator.Event) {
	topic := ev.Module + "-events"
	payload := map[string]any{
		"id":      ev.ID.String(),
		"event":   ev.Name,
		"payload": ev.Payload,
	}
	go func() {
		if err := KafkaProduceMessage(p.ClientID, topic, payload); err != nil {
			log.Printf("[events] failed to produce %s to %s: %s\n", ev.Name, topic, err.Error())
		}
	}()
}

// SocketEventPublisher broadcasts events to the module's namespace so
// dashboards refresh without polling.
type SocketEventPublisher struct{}

func (p *SocketEventPublisher) Publish(ev allocator.Event) {
	wss := GetSocketServer()
	if wss == nil {
		return
	}
	wss.Of("/"+ev.Module, nil).Emit(ev.Name, map[string]any(ev.Payload))
}

// CompositePublisher fans one event out to every configured transport.
type CompositePublisher []allocator.EventPublisher

func (c CompositePublisher) Publish(ev allocator.Event) {
	for _, p := range c {
		p.Publish(ev)
	}
}

package nats

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

// Subscriber feeds remote change events into the catalog store. Events
// published by this same process (matching origin) are dropped here; the
// store already reconciled its cache synchronously when the write completed.
type Subscriber struct {
	conn   *nats.Conn
	origin string
	logger *logger.Logger
	subs   []*nats.Subscription
}

func NewSubscriber(url, origin string, log *logger.Logger) (*Subscriber, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, origin: origin, logger: log}, nil
}

// Start subscribes to every poundtrades change subject and invokes apply for
// each foreign-origin event.
func (s *Subscriber) Start(apply func(domain.ChangeEvent)) error {
	sub, err := s.conn.Subscribe("poundtrades.>", func(msg *nats.Msg) {
		s.handle(msg.Subject, msg.Data, apply)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) handle(subject string, data []byte, apply func(domain.ChangeEvent)) {
	var event domain.ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn("Subscriber: dropping malformed change event", "subject", subject, "error", err.Error())
		return
	}
	if event.Origin == s.origin {
		return
	}
	s.logger.Debug("Subscriber: applying remote change", "subject", subject, "table", event.Table, "op", event.Op, "id", event.ID)
	apply(event)
}

func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.conn.Close()
}

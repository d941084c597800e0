package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/poundtrades/catalog-service/internal/listing/domain"
)

// SubjectFor maps a change event onto its NATS subject, e.g.
// poundtrades.listings.update.
func SubjectFor(event domain.ChangeEvent) string {
	return fmt.Sprintf("poundtrades.%s.%s", event.Table, event.Op)
}

type Publisher struct {
	conn   *nats.Conn
	origin string
}

// NewPublisher connects to NATS. Origin is this process's identity, stamped
// onto every event so subscribers can skip their own echoes.
func NewPublisher(url, origin string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, origin: origin}, nil
}

func (p *Publisher) PublishChange(ctx context.Context, event domain.ChangeEvent) error {
	event.Origin = p.origin
	jsonData, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectFor(event), jsonData)
}

func (p *Publisher) Close() {
	p.conn.Close()
}

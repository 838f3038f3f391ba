// Package events publishes detection lifecycle events over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/threatforge/detection-platform/internal/models"
)

// Publisher announces detection lifecycle events on a NATS subject.
// Consumers (alerting pipelines, search indexers) subscribe independently;
// the publisher has no delivery guarantees beyond NATS core at-most-once.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server and returns a publisher for the subject.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("detections"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// DetectionCreatedEvent is the wire format of a creation announcement.
type DetectionCreatedEvent struct {
	DetectionID  string              `json:"detection_id"`
	Name         string              `json:"name"`
	PlatformType models.PlatformType `json:"platform_type"`
	QualityScore float64             `json:"quality_score"`
	OwnerID      string              `json:"owner_id"`
	Tags         []string            `json:"tags,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func (p *Publisher) DetectionCreated(ctx context.Context, d *models.Detection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := DetectionCreatedEvent{
		DetectionID:  d.ID,
		Name:         d.Name,
		PlatformType: d.PlatformType,
		QualityScore: d.QualityScore,
		OwnerID:      d.OwnerID,
		Tags:         d.Tags,
		CreatedAt:    d.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.conn.Close()
}

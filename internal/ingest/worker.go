package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/seiflow/seiflow/internal/caselog"
)

// ErrInvalidEnvelope marks messages that cannot be imported.
var ErrInvalidEnvelope = errors.New("invalid case envelope")

// Importer stores decoded case exports. *casestore.CaseStore satisfies it.
type Importer interface {
	ImportCase(c *caselog.CaseExport) (string, error)
}

// Stats counts what a worker run processed.
type Stats struct {
	Imported int
	Rejected int
}

// Decode parses a message into a case export. The message key, when
// present, fills in a missing case id and must agree with it otherwise.
func Decode(msg Message) (*caselog.CaseExport, error) {
	var c caselog.CaseExport
	if err := json.Unmarshal(msg.Value, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	key := strings.TrimSpace(string(msg.Key))
	c.Case = strings.TrimSpace(c.Case)
	switch {
	case c.Case == "" && key == "":
		return nil, fmt.Errorf("%w: missing case id", ErrInvalidEnvelope)
	case c.Case == "":
		c.Case = key
	case key != "" && key != c.Case:
		return nil, fmt.Errorf("%w: key %q does not match case %q", ErrInvalidEnvelope, key, c.Case)
	}
	return &c, nil
}

// Run imports every message from consumer until ctx is done or the
// message channel closes. Malformed messages are logged and skipped;
// storage errors stop the run.
func Run(ctx context.Context, consumer Consumer, importer Importer) (Stats, error) {
	var stats Stats
	if err := consumer.Start(ctx); err != nil {
		return stats, fmt.Errorf("start consumer: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return stats, nil
		case msg, ok := <-consumer.Messages():
			if !ok {
				return stats, nil
			}
			c, err := Decode(msg)
			if err != nil {
				stats.Rejected++
				slog.Warn("Ingest: message rejected", "topic", msg.Topic, "error", err)
				continue
			}
			importID, err := importer.ImportCase(c)
			if err != nil {
				return stats, fmt.Errorf("import case %s: %w", c.Case, err)
			}
			stats.Imported++
			slog.Debug("Ingest: case stored", "case", c.Case, "import_id", importID, "topic", msg.Topic)
		}
	}
}

// Encode builds the message for a case export, keyed by case id.
func Encode(c *caselog.CaseExport) (Message, error) {
	if strings.TrimSpace(c.Case) == "" {
		return Message{}, fmt.Errorf("%w: missing case id", ErrInvalidEnvelope)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return Message{}, err
	}
	return Message{Key: []byte(c.Case), Value: data}, nil
}

// Publisher writes case exports to a topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for topic on the given brokers.
func NewPublisher(brokers, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(splitBrokers(brokers)...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish sends one case export.
func (p *Publisher) Publish(ctx context.Context, c *caselog.CaseExport) error {
	msg, err := Encode(c)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value}); err != nil {
		return fmt.Errorf("publish case %s: %w", c.Case, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

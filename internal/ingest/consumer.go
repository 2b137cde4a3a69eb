// Package ingest moves case exports between Kafka and the local case
// store.
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Consumer abstracts the message transport for the ingest worker.
type Consumer interface {
	// Start begins consuming from the configured topics.
	Start(ctx context.Context) error
	// Messages returns a channel of raw messages.
	Messages() <-chan Message
	// Close stops the consumer.
	Close() error
}

// Message is a raw message received from a topic.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// KafkaConsumer implements Consumer using segmentio/kafka-go.
type KafkaConsumer struct {
	brokers       string
	consumerGroup string
	topics        []string
	readers       []*kafka.Reader
	messages      chan Message
	wg            sync.WaitGroup
	mu            sync.Mutex
}

// NewKafkaConsumer creates a Kafka consumer for the given topics.
func NewKafkaConsumer(brokers, consumerGroup string, topics []string) *KafkaConsumer {
	return &KafkaConsumer{
		brokers:       brokers,
		consumerGroup: consumerGroup,
		topics:        topics,
		messages:      make(chan Message, 100),
	}
}

// Start launches one reader per topic. Readers stop when ctx is done.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	brokerList := splitBrokers(c.brokers)
	for _, topic := range c.topics {
		c.startReader(ctx, brokerList, topic)
	}
	return nil
}

func (c *KafkaConsumer) startReader(ctx context.Context, brokerList []string, topic string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList,
		Topic:    topic,
		GroupID:  c.consumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	c.mu.Lock()
	c.readers = append(c.readers, reader)
	c.mu.Unlock()

	c.wg.Add(1)
	go func(r *kafka.Reader, t string) {
		defer c.wg.Done()
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				slog.Warn("KafkaConsumer: read error", "topic", t, "error", err)
				continue
			}
			if !c.deliver(ctx, Message{Topic: t, Key: msg.Key, Value: msg.Value}) {
				return
			}
		}
	}(reader, topic)
}

// deliver hands msg to the message channel. It returns false when ctx
// ends first.
func (c *KafkaConsumer) deliver(ctx context.Context, msg Message) bool {
	select {
	case c.messages <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Messages returns the channel of consumed messages.
func (c *KafkaConsumer) Messages() <-chan Message {
	return c.messages
}

// Close stops all readers and closes the message channel. Messages not
// yet taken from the channel are discarded so readers parked on a full
// channel can exit.
func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	for _, r := range c.readers {
		r.Close()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			close(c.messages)
			return nil
		case <-c.messages:
		}
	}
}

// ChannelConsumer is an in-process Consumer backed by a Go channel.
type ChannelConsumer struct {
	ch chan Message
}

// NewChannelConsumer creates an in-process consumer for testing.
func NewChannelConsumer() *ChannelConsumer {
	return &ChannelConsumer{ch: make(chan Message, 100)}
}

// Start is a no-op for the channel consumer.
func (c *ChannelConsumer) Start(ctx context.Context) error { return nil }

// Messages returns the message channel.
func (c *ChannelConsumer) Messages() <-chan Message { return c.ch }

// Close closes the channel.
func (c *ChannelConsumer) Close() error {
	close(c.ch)
	return nil
}

// Send pushes a message into the channel consumer.
func (c *ChannelConsumer) Send(msg Message) {
	c.ch <- msg
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

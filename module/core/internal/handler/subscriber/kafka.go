package subscriber

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer feeds position samples from a Kafka topic, for devices
// that report through a gateway instead of MQTT.
type KafkaConsumer struct {
	reader messageReader
	feed   positionFeed

	// read errors back off from baseDelay up to maxDelay
	baseDelay time.Duration
	maxDelay  time.Duration
}

func NewKafkaConsumer(brokers []string, topic, groupID string, feed positionFeed) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		feed:      feed,
		baseDelay: 100 * time.Millisecond,
		maxDelay:  5 * time.Second,
	}
}

// Run reads until ctx is cancelled or the reader is closed.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer func() { _ = c.reader.Close() }()
	failures := 0
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			delay := c.backoff(failures)
			failures++
			log.Printf("kafka read error (attempt %d, retrying in %s): %v", failures, delay, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		failures = 0
		c.handleMessage(m)
	}
}

// backoff is baseDelay * 2^failures capped at maxDelay, plus up to
// baseDelay of jitter.
func (c *KafkaConsumer) backoff(failures int) time.Duration {
	if c.baseDelay <= 0 {
		return 0
	}
	delay := c.maxDelay
	if failures < 16 {
		if d := c.baseDelay << uint(failures); d < c.maxDelay {
			delay = d
		}
	}
	return delay + time.Duration(rand.Int63n(int64(c.baseDelay)))
}

func (c *KafkaConsumer) handleMessage(m kafka.Message) {
	sample, err := decodeLocation(m.Value)
	if err != nil {
		log.Printf("kafka %s/%d@%d: %v", m.Topic, m.Partition, m.Offset, err)
		return
	}
	c.feed.Publish(sample)
}

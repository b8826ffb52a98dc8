package subscriber

import (
	"log"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const DefaultTopic = "/sonecaz/device/+/location"

type mqttSubscriber interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// LocationSubscriber feeds position samples received over MQTT.
type LocationSubscriber struct {
	client mqttSubscriber
	topic  string
	feed   positionFeed

	mu      sync.Mutex
	started bool
}

func NewLocationSubscriber(client mqttSubscriber, topic string, feed positionFeed) *LocationSubscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	return &LocationSubscriber{client: client, topic: topic, feed: feed}
}

func (s *LocationSubscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.subscribe(); err != nil {
		return err
	}
	s.started = true
	return nil
}

// Resubscribe restores the subscription after the client reconnects with a
// clean session. It does nothing before Start or after Stop.
func (s *LocationSubscriber) Resubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	return s.subscribe()
}

func (s *LocationSubscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	token := s.client.Unsubscribe(s.topic)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) subscribe() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ paho.Client, msg paho.Message) {
	sample, err := decodeLocation(msg.Payload())
	if err != nil {
		log.Printf("mqtt %s: %v", msg.Topic(), err)
		return
	}
	s.feed.Publish(sample)
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/publisher"
)

var _ publisher.NotificationPublisher = (*NotificationPublisher)(nil)

const (
	ExchangeName = "sonecaz.events"
	QueueName    = "notifications"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
}

// NotificationPublisher reopens its channel whenever the broker has
// closed it, as long as the connection itself is still up.
type NotificationPublisher struct {
	open     func() (amqpChannel, error)
	deviceID string
	now      func() time.Time

	mu sync.Mutex
	ch amqpChannel
}

func NewNotificationPublisher(conn *amqp.Connection, deviceID string) (*NotificationPublisher, error) {
	p := &NotificationPublisher{
		open:     func() (amqpChannel, error) { return openChannel(conn) },
		deviceID: deviceID,
		now:      time.Now,
	}
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

func openChannel(conn *amqp.Connection) (amqpChannel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return ch, nil
}

func (p *NotificationPublisher) channel() (amqpChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func (p *NotificationPublisher) discard(ch amqpChannel) {
	p.mu.Lock()
	if p.ch == ch {
		p.ch = nil
	}
	p.mu.Unlock()
}

// ChannelOpen reports whether the next publish can use the current channel
// without reopening it.
func (p *NotificationPublisher) ChannelOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch != nil && !p.ch.IsClosed()
}

// NotificationMessage is the JSON body published for every notification.
type NotificationMessage struct {
	DeviceID  string `json:"device_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

func (p *NotificationPublisher) PublishNotification(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(NotificationMessage{
		DeviceID:  p.deviceID,
		Title:     n.Title,
		Body:      n.Body,
		Timestamp: p.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, ExchangeName, "", false, false, msg)
	if !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	// closed between the check and the publish; retry once on a fresh channel
	p.discard(ch)
	if ch, err = p.channel(); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, ExchangeName, "", false, false, msg)
}

// ShowNotification lets the publisher serve as the dispatcher's
// notification sink.
func (p *NotificationPublisher) ShowNotification(ctx context.Context, n domain.Notification) error {
	return p.PublishNotification(ctx, n)
}

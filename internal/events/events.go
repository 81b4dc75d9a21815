// Package events publishes order lifecycle notifications after commit.
package events

import (
	"context"
	"encoding/json"
	"time"

	"lms-commerce/internal/domain"
	"lms-commerce/internal/logging"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const TypeOrderCompleted = "order.completed"

type Event struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"`
	TotalMinor int64              `json:"totalAmount"`
	Currency   string             `json:"currency"`
	Method     string             `json:"paymentMethod"`
	Items      []domain.OrderItem `json:"items"`
	At         time.Time          `json:"at"`
}

// OrderCompleted builds the event emitted once an order reaches completed.
func OrderCompleted(o domain.Order, at time.Time) Event {
	return Event{
		Type:       TypeOrderCompleted,
		OrderID:    o.OrderID,
		UserID:     o.UserID,
		TotalMinor: o.TotalMinor,
		Currency:   o.Currency,
		Method:     string(o.PaymentMethod),
		Items:      o.Items,
		At:         at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher sends events as JSON over Redis pub/sub.
type RedisPublisher struct {
	client  redisPublisher
	channel string
	logger  logrus.FieldLogger
}

func NewRedisPublisher(client redisPublisher, channel string, logger logrus.FieldLogger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logging.OrDiscard(logger).WithField("component", "events"),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return errors.Wrapf(err, "publish %s to %s", ev.Type, p.channel)
	}
	p.logger.WithFields(logrus.Fields{"type": ev.Type, "order_id": ev.OrderID, "channel": p.channel}).Debug("event published")
	return nil
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return client, nil
}

package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/events"
)

// NotificationService fans domain events out to the waiting-room
// display boards over a Redis pub/sub channel.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	redis      *redis.Client
	channel    string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, client *redis.Client, channel string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		redis:      client,
		channel:    channel,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventClientCalled, n.handleClientCalled)
	n.dispatcher.Subscribe(events.EventTicketIssued, n.handleTicketIssued)
	n.dispatcher.Subscribe(events.EventAvailabilityChanged, n.handleAvailabilityChanged)
}

func (n *NotificationService) handleClientCalled(ctx context.Context, event events.Event) error {
	n.logger.Info("ClientCalled", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return n.broadcast(ctx, event)
}

func (n *NotificationService) handleTicketIssued(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketIssued", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return n.broadcast(ctx, event)
}

func (n *NotificationService) handleAvailabilityChanged(ctx context.Context, event events.Event) error {
	n.logger.Debug("AvailabilityChanged", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) broadcast(ctx context.Context, event events.Event) error {
	if n.redis == nil || n.channel == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal event", zap.Error(err))
		return err
	}
	if err := n.redis.Publish(ctx, n.channel, string(payload)).Err(); err != nil {
		n.logger.Warn("display broadcast failed",
			zap.String("channel", n.channel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/board-service/internal/config"
	"github.com/spec-kit/board-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTaskCreated, n.handleTaskEvent)
	n.dispatcher.Subscribe(events.EventTaskStatusChanged, n.handleTaskEvent)
	n.dispatcher.Subscribe(events.EventTaskAssigned, n.handleTaskEvent)
	n.dispatcher.Subscribe(events.EventBoardMemberAdded, n.handleBoardEvent)
	n.dispatcher.Subscribe(events.EventBoardMemberRemoved, n.handleBoardEvent)
	n.dispatcher.Subscribe(events.EventBoardArchived, n.handleBoardEvent)
}

func (n *NotificationService) handleTaskEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("board_id", event.BoardID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleBoardEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("board_id", event.BoardID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("board_id", event.BoardID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("board_id", event.BoardID),
		zap.String("event_type", string(event.Type)))
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arivu-ai-be/internal/dto"
	"arivu-ai-be/internal/model"
	"arivu-ai-be/internal/pkg/logger"
	internalWS "arivu-ai-be/internal/websocket"
	"arivu-ai-be/pkg/events"
	pktNats "arivu-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// ISessionEventService fans session events out to connected clients.
type ISessionEventService interface {
	Consume(ctx context.Context) error
}

type sessionEventService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewSessionEventService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *internalWS.Hub,
	log logger.ILogger,
) ISessionEventService {
	return &sessionEventService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
		logger:    log,
	}
}

func (s *sessionEventService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(msg)
		}
	}()

	return nil
}

func (s *sessionEventService) processMessage(msg *message.Message) {
	var payload dto.PublishSessionEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("SessionEventService", "Failed to unmarshal message", map[string]interface{}{"error": err})
		msg.Ack() // invalid payloads never become valid, do not retry
		return
	}

	event := model.SessionEvent{
		Type:      payload.Type,
		SessionId: payload.SessionId,
		TurnId:    payload.TurnId,
		Role:      payload.Role,
		IsError:   payload.IsError,
		Message:   payload.Message,
		CreatedAt: time.Now(),
	}

	s.hub.Send(payload.UserId, event)
	msg.Ack()
}

// SubscribeTierEvents bridges cross-service tier changes onto the hub so
// an upgrade confirmed by the payment webhook reaches open tabs.
func SubscribeTierEvents(subscriber *pktNats.Subscriber, hub *internalWS.Hub, log logger.ILogger) error {
	handler := func(ctx context.Context, event events.Event) error {
		payload := event.Payload()
		data, ok := payload["data"].(map[string]interface{})
		if !ok {
			data = payload
		}

		rawId, ok := data["user_id"].(string)
		if !ok {
			return fmt.Errorf("tier event missing user_id")
		}
		userId, err := uuid.Parse(rawId)
		if err != nil {
			return err
		}

		hub.Send(userId, model.SessionEvent{
			Type:      "tier_changed",
			Message:   event.EventType(),
			CreatedAt: time.Now(),
		})
		return nil
	}

	if err := subscriber.Subscribe("events."+events.TypeTierUpgraded, "ws-tier-upgraded", handler); err != nil {
		return err
	}
	return subscriber.Subscribe("events."+events.TypeTierReverted, "ws-tier-reverted", handler)
}

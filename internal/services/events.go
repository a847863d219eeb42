package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/webservice-umg/apiserver/types"
)

const (
	EventUserCreated = "usuario.created"
	EventUserUpdated = "usuario.updated"
	EventUserDeleted = "usuario.deleted"
)

// EventPublisher sends a payload to a named channel. *mq.MQ implements it.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// UserEvent is the JSON body published after a committed user change.
type UserEvent struct {
	Type       string     `json:"type"`
	User       types.User `json:"usuario"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// UserEvents publishes user lifecycle events. A nil *UserEvents is a no-op.
type UserEvents struct {
	publisher EventPublisher
	channel   string
}

func NewUserEvents(publisher EventPublisher, channel string) *UserEvents {
	return &UserEvents{publisher: publisher, channel: channel}
}

// Publish is best effort: failures are logged and never reach the caller.
func (e *UserEvents) Publish(ctx context.Context, eventType string, user types.User) {
	if e == nil || e.publisher == nil {
		return
	}
	logger := zerolog.Ctx(ctx)

	data, err := json.Marshal(UserEvent{
		Type:       eventType,
		User:       user,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Error().Err(err).Str("event", eventType).Msg("encode user event")
		return
	}

	attrs := map[string]string{
		"type":         eventType,
		"content_type": "application/json",
		"id_usuario":   strconv.Itoa(user.ID),
	}
	id, err := e.publisher.Publish(ctx, e.channel, data, attrs)
	if err != nil {
		logger.Warn().Err(err).
			Str("event", eventType).
			Str("channel", e.channel).
			Int("id_usuario", user.ID).
			Msg("publish user event failed")
		return
	}
	logger.Debug().Str("event", eventType).Str("message_id", id).Int("id_usuario", user.ID).Msg("user event published")
}

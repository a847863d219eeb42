package mq

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webservice-umg/apiserver/internal/services"
	"github.com/webservice-umg/apiserver/types"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const testChannel = "usuarios.events"

func newTestPubSub(t *testing.T) (*PubSubClient, *pstest.Server) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(ctx, "webservice-umg-test", option.WithGRPCConn(conn))
	require.NoError(t, err)

	ps := newPubSubClient(client, "")
	t.Cleanup(func() { _ = ps.Close() })
	return ps, srv
}

func TestPubSubUserEventsRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	ps, srv := newTestPubSub(t)

	// Messages published before a subscription exists are dropped.
	_, err := ps.subscription(ctx, testChannel)
	require.NoError(t, err)

	events := services.NewUserEvents(New(ps), testChannel)
	ana := types.User{ID: 7, Name: "Ana", Email: "ana@x.com", Password: "p1", RegisteredAt: time.Now().UTC()}
	events.Publish(ctx, services.EventUserCreated, ana)
	ana.Name = "Ana María"
	events.Publish(ctx, services.EventUserUpdated, ana)
	events.Publish(ctx, services.EventUserDeleted, ana)

	published := srv.Messages()
	require.Len(t, published, 3)
	for _, msg := range published {
		assert.Equal(t, "7", msg.OrderingKey)
		assert.Equal(t, "application/json", msg.Attributes["content_type"])
	}

	var (
		mu       sync.Mutex
		received []services.UserEvent
	)
	err = ps.Subscribe(ctx, testChannel, func(_ context.Context, msg Message) error {
		var event services.UserEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		assert.Equal(t, event.Type, msg.Attributes["type"])
		if len(received) == 3 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 3)
	got := make([]string, 0, len(received))
	for _, event := range received {
		got = append(got, event.Type)
		assert.Equal(t, 7, event.User.ID)
		assert.Empty(t, event.User.Password)
	}
	assert.ElementsMatch(t, []string{services.EventUserCreated, services.EventUserUpdated, services.EventUserDeleted}, got)
}

func TestPubSubPublishDefaultsContentType(t *testing.T) {
	ctx := context.Background()
	ps, srv := newTestPubSub(t)

	id, err := ps.Publish(ctx, testChannel, []byte("raw"), map[string]string{"type": "ping"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	published := srv.Messages()
	require.Len(t, published, 1)
	assert.Equal(t, "application/octet-stream", published[0].Attributes["content_type"])
	assert.Equal(t, "ping", published[0].Attributes["type"])
	assert.Empty(t, published[0].OrderingKey)
}

func TestPubSubPublishRequiresChannel(t *testing.T) {
	ps, _ := newTestPubSub(t)

	_, err := ps.Publish(context.Background(), " ", []byte("x"), nil)
	assert.Error(t, err)
	assert.Error(t, ps.Subscribe(context.Background(), "", func(context.Context, Message) error { return nil }))
}

func TestPubSubTopicIsCreatedOnce(t *testing.T) {
	ctx := context.Background()
	ps, _ := newTestPubSub(t)

	first, err := ps.topic(ctx, testChannel)
	require.NoError(t, err)
	second, err := ps.topic(ctx, testChannel)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.True(t, first.EnableMessageOrdering)
	assert.Equal(t, testChannel+"-sub", ps.subscriptionName(testChannel))
}

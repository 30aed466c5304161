package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestPublishSendsJSONWithAttributes(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t)

	_, err := client.CreateTopic(ctx, "articles-stored")
	require.NoError(t, err)

	pub, err := New(client)
	require.NoError(t, err)
	defer pub.Close()

	payload := map[string]string{"url": "https://example.com/a", "headline": "A"}
	id, err := pub.Publish(ctx, "articles-stored", payload)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, id, msgs[0].ID)
	require.Equal(t, "application/json", msgs[0].Attributes["content-type"])

	var got map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, payload, got)
}

func TestPublishErrors(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	pub, err := New(client)
	require.NoError(t, err)
	defer pub.Close()

	_, err = pub.Publish(ctx, "", "payload")
	require.Error(t, err)

	_, err = pub.Publish(ctx, "missing-topic", "payload")
	require.ErrorContains(t, err, "publish message")

	_, err = pub.Publish(ctx, "missing-topic", func() {})
	require.ErrorContains(t, err, "marshal payload")

	_, err = New(nil)
	require.Error(t, err)
}

func TestCarrierRoundTrip(t *testing.T) {
	t.Parallel()
	c := &pubsubCarrier{attrs: map[string]string{}}
	c.Set("traceparent", "00-abc-def-01")
	require.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	require.Equal(t, []string{"traceparent"}, c.Keys())
}

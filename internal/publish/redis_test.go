package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	channel string
	message any
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message = message
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestPublish_EncodesJSON(t *testing.T) {
	fake := &fakeRedis{}
	b := NewRedisBroadcaster(fake, "riftwatch:snapshots")

	err := b.Publish(context.Background(), map[string]int{"goldDifference": 1500})
	require.NoError(t, err)

	assert.Equal(t, "riftwatch:snapshots", fake.channel)
	body, ok := fake.message.([]byte)
	require.True(t, ok)
	assert.JSONEq(t, `{"goldDifference":1500}`, string(body))
}

func TestPublish_Error(t *testing.T) {
	fake := &fakeRedis{err: errors.New("connection reset")}
	b := NewRedisBroadcaster(fake, "ch")

	err := b.Publish(context.Background(), "x")
	assert.ErrorContains(t, err, "connection reset")
}

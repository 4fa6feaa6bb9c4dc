package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSig-Alphabet/internal/config"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
)

func TestNewClient_ConnectsAndCloses(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())

	// Operations after close are rejected, and closing twice is a no-op.
	assert.ErrorIs(t, client.Ping(context.Background()), ErrClientClosed)
	assert.NoError(t, client.Close())
}

func TestNewClient_ConnectionFailure(t *testing.T) {
	_, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"}, logging.NewNopLogger())
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

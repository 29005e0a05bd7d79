package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/mongo-bootstrap/pkg/component/storage"
)

func TestRegistry_DedupesByIdentity(t *testing.T) {
	driver := newFakeDriver()
	reg := NewRegistry(WithDriver(driver), WithLogger(newRecordingLogger()))

	first, existed, err := reg.Open(peterOptions())
	require.NoError(t, err)
	assert.False(t, existed)

	tuned := peterOptions()
	tuned.PoolSize = Int(50)
	second, existed, err := reg.Open(tuned)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Same(t, first, second)
	assert.Equal(t, DefaultPoolSize, second.Config().PoolSize, "the first registration wins")

	other := peterOptions()
	other.DB = "identity"
	third, existed, err := reg.Open(other)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, first.UID(), third.UID())

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"mongodb:3bd89ec5", "mongodb:4878374e"}, reg.List())

	got, err := reg.Get(first.UID())
	require.NoError(t, err)
	assert.Same(t, first, got)

	_, err = reg.Get("mongodb:00000000")
	assert.ErrorIs(t, err, storage.ErrClientNotFound)
}

func TestRegistry_OpenInvalid(t *testing.T) {
	reg := NewRegistry(WithDriver(newFakeDriver()))

	_, _, err := reg.Open(&HostOptions{})
	assert.True(t, IsKind(err, ErrInvalidOptions))
	assert.Zero(t, reg.Len())
}

func TestRegistry_HealthAndClose(t *testing.T) {
	driver := newFakeDriver()
	reg := NewRegistry(WithDriver(driver), WithLogger(newRecordingLogger()))
	ctx := context.Background()

	c, _, err := reg.Open(peterOptions())
	require.NoError(t, err)

	statuses := reg.HealthCheckAll(ctx)
	require.Contains(t, statuses, c.UID())
	assert.False(t, statuses[c.UID()].Healthy, "not connected yet")

	_, err = c.Connect(ctx)
	require.NoError(t, err)
	assert.True(t, reg.HealthCheckAll(ctx)[c.UID()].Healthy)

	driver.client.setDisconnectErr(errors.New("socket closed"))
	assert.Error(t, reg.CloseAll(ctx))
	assert.Equal(t, 1, reg.Len(), "failed clients stay registered")
	assert.True(t, c.IsConnected())

	driver.client.setDisconnectErr(nil)
	require.NoError(t, reg.CloseAll(ctx))
	assert.Zero(t, reg.Len())
	assert.False(t, c.IsConnected())
}

package cache

import (
	"context"
	"testing"
	"time"

	"warehouse-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupRedis(t *testing.T) *RedisClient {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container tests are skipped in -short mode")
	}

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	addr, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)

	rc, err := NewRedisClient(addr, "", 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	rc := setupRedis(t)
	locker := rc.Locker(5 * time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "checkout:zone:1")
	require.NoError(t, err)

	// другой ключ не мешает
	unlockOther, err := locker.Lock(ctx, "checkout:zone:2")
	require.NoError(t, err)
	unlockOther()

	_, err = locker.Lock(ctx, "checkout:zone:1")
	assert.ErrorIs(t, err, service.ErrResourceBusy)

	unlock()
	unlock2, err := locker.Lock(ctx, "checkout:zone:1")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_ExpiresAfterTTL(t *testing.T) {
	rc := setupRedis(t)
	locker := rc.Locker(300 * time.Millisecond)
	ctx := context.Background()

	_, err := locker.Lock(ctx, "supplier-order:42")
	require.NoError(t, err)

	// повторные попытки идут дольше ttl, поэтому второй вызов дождётся истечения
	unlock, err := locker.Lock(ctx, "supplier-order:42")
	require.NoError(t, err)
	unlock()
}

func TestNewRedisLocker_DefaultTTL(t *testing.T) {
	l := NewRedisLocker(nil, 0, zap.NewNop())
	assert.Equal(t, 10*time.Second, l.ttl)
}

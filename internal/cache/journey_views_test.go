package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"hospital-journey-server/internal/config"
	"hospital-journey-server/internal/journey"
	"hospital-journey-server/internal/models"
)

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestViewKey(t *testing.T) {
	assert.Equal(t, "journey:view:abc", viewKey("abc"))
}

func TestJourneyViews_UnavailableRedisIsAMiss(t *testing.T) {
	views := NewJourneyViews(unreachableClient(t))
	ctx := context.Background()

	view := &journey.View{Journey: models.Journey{BaseModel: models.BaseModel{ID: "j-1"}}}
	assert.NotPanics(t, func() {
		views.Set(ctx, view, time.Minute)
		views.Invalidate(ctx, "j-1")
	})

	got, ok := views.Get(ctx, "j-1")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, config.RedisConfig{Host: "127.0.0.1", Port: "1"})
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

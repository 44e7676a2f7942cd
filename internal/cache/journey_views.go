package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"hospital-journey-server/internal/journey"
	"hospital-journey-server/internal/observability"
)

const keyPrefix = "journey:view:"

// JourneyViews caches computed journey views in Redis. Redis errors are
// logged and reported as misses so polling keeps working without the cache.
type JourneyViews struct {
	client redis.UniversalClient
}

// NewJourneyViews creates the cache on client.
func NewJourneyViews(client redis.UniversalClient) *JourneyViews {
	return &JourneyViews{client: client}
}

var _ journey.ViewCache = (*JourneyViews)(nil)

func viewKey(journeyID string) string {
	return keyPrefix + journeyID
}

// Get returns the cached view, if any.
func (c *JourneyViews) Get(ctx context.Context, journeyID string) (*journey.View, bool) {
	data, err := c.client.Get(ctx, viewKey(journeyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("journey_id", journeyID).Msg("journey view cache read failed")
		return nil, false
	}

	var view journey.View
	if err := json.Unmarshal(data, &view); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("journey_id", journeyID).Msg("discarding undecodable cached journey view")
		c.Invalidate(ctx, journeyID)
		return nil, false
	}
	return &view, true
}

// Set stores the view for ttl.
func (c *JourneyViews) Set(ctx context.Context, view *journey.View, ttl time.Duration) {
	data, err := json.Marshal(view)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("journey_id", view.ID).Msg("failed to encode journey view")
		return
	}
	if err := c.client.Set(ctx, viewKey(view.ID), data, ttl).Err(); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("journey_id", view.ID).Msg("journey view cache write failed")
	}
}

// Invalidate drops the cached view.
func (c *JourneyViews) Invalidate(ctx context.Context, journeyID string) {
	if err := c.client.Del(ctx, viewKey(journeyID)).Err(); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("journey_id", journeyID).Msg("journey view cache invalidation failed")
	}
}

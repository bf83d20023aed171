package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tracklab/studio-api/internal/model"
)

const sectionsTTL = 24 * time.Hour

// SectionCache caches detected sections per track in Redis. The bridge
// invalidates an entry after every observed replace-section task update so
// dependent reads refetch.
type SectionCache struct {
	redis *redis.Client
}

// NewSectionCache creates a Redis-backed section cache.
func NewSectionCache(redisClient *redis.Client) *SectionCache {
	return &SectionCache{redis: redisClient}
}

func sectionsKey(trackID string) string {
	return fmt.Sprintf("sections-for-track:%s", trackID)
}

// Get returns the cached sections for a track and whether they were found.
func (c *SectionCache) Get(ctx context.Context, trackID string) ([]model.Section, bool) {
	data, err := c.redis.Get(ctx, sectionsKey(trackID)).Bytes()
	if err != nil {
		return nil, false
	}
	var sections []model.Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, false
	}
	return sections, true
}

// Set stores the sections for a track.
func (c *SectionCache) Set(ctx context.Context, trackID string, sections []model.Section) {
	data, err := json.Marshal(sections)
	if err != nil {
		log.Printf("Failed to marshal sections for %s: %v", trackID, err)
		return
	}
	if err := c.redis.Set(ctx, sectionsKey(trackID), data, sectionsTTL).Err(); err != nil {
		log.Printf("Failed to cache sections for %s: %v", trackID, err)
	}
}

// InvalidateSections drops the cached sections for a track. Errors are
// logged and swallowed: a stale cache entry is served until the next
// successful invalidation.
func (c *SectionCache) InvalidateSections(ctx context.Context, trackID string) {
	if err := c.redis.Del(ctx, sectionsKey(trackID)).Err(); err != nil {
		log.Printf("Failed to invalidate sections for %s: %v", trackID, err)
	}
}

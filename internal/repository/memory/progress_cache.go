package memory

import (
	"time"

	"subtrackr-be/pkg/cancellation"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ProgressCache keeps the latest progress event per cancellation request so
// the status-poll endpoint can answer without hitting the database.
type ProgressCache struct {
	cache *cache.Cache
}

func NewProgressCache() *ProgressCache {
	// Snapshots expire after an hour; completed requests are read from the
	// database anyway.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ProgressCache{
		cache: c,
	}
}

func (r *ProgressCache) Save(event cancellation.ProgressEvent) {
	r.cache.Set(event.RequestID.String(), event, cache.DefaultExpiration)
}

func (r *ProgressCache) Get(requestID uuid.UUID) (cancellation.ProgressEvent, bool) {
	if x, found := r.cache.Get(requestID.String()); found {
		return x.(cancellation.ProgressEvent), true
	}
	return cancellation.ProgressEvent{}, false
}

func (r *ProgressCache) Delete(requestID uuid.UUID) {
	r.cache.Delete(requestID.String())
}

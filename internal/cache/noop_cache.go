package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// noopCache is used when redis is disabled. Every read misses.
type noopCache struct{}

func NewNoopCache() CacheService {
	return noopCache{}
}

func (noopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (noopCache) Get(context.Context, string, interface{}) error { return ErrCacheMiss }

func (noopCache) Delete(context.Context, string) error { return nil }

func (noopCache) CacheOrExecute(_ context.Context, _ string, dest interface{}, _ time.Duration, fn func() (interface{}, error)) error {
	value, err := fn()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return json.Unmarshal(data, dest)
}

package album

import "time"

type Cache interface {
	Get(userID string) (*Overview, bool)
	Set(userID string, overview *Overview, ttl time.Duration)
	Delete(userID string)
	Clear()
}

type noopCache struct{}

func (noopCache) Get(string) (*Overview, bool) {
	return nil, false
}

func (noopCache) Set(string, *Overview, time.Duration) {}

func (noopCache) Delete(string) {}

func (noopCache) Clear() {}

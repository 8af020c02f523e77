package common

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheService is the in-memory cache used when Redis is not configured
// and in tests.
type CacheService struct {
	cache *cache.Cache
}

// Ensure CacheService implements CacheInterface
var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultExpirationSeconds, cleanUpIntervalSeconds int) *CacheService {

	defaultExpiration := time.Duration(defaultExpirationSeconds) * time.Second
	cleanUpInterval := time.Duration(cleanUpIntervalSeconds) * time.Second
	c := cache.New(defaultExpiration, cleanUpInterval)
	return &CacheService{cache: c}
}

func (cs *CacheService) Set(key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	val, found := cs.cache.Get(key)
	recordLookup(key, found)
	return val, found
}

func (cs *CacheService) GetInto(key string, dest interface{}) bool {
	val, found := cs.Get(key)
	if !found {
		return false
	}
	data, err := json.Marshal(val)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (cs *CacheService) SetNX(key string, value interface{}, duration time.Duration) bool {
	return cs.cache.Add(key, value, duration) == nil
}

func (cs *CacheService) Delete(key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) DeletePrefix(prefix string) {
	for key := range cs.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			cs.cache.Delete(key)
		}
	}
}

func (cs *CacheService) GetOrSet(
	key string,
	duration time.Duration,
	loader func() (any, error)) (interface{}, error) {
	if val, found := cs.Get(key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	cs.Set(key, val, duration)
	return val, nil
}

// Close closes the cache (no-op for in-memory cache)
func (cs *CacheService) Close() error {
	return nil
}

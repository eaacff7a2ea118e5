package kvstore

import (
	"context"
	"errors"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ Backend = (*CachedStore)(nil)

const cacheExpireSeconds = 60 * 60

// CachedStore is a read-through, write-through freecache layer over another
// backend. Values larger than 1/1024 of the cache size are not cached by
// freecache; those reads always go to the underlying store.
type CachedStore struct {
	next  Backend
	cache *freecache.Cache
}

func NewCachedStore(next Backend, cacheSizeBytes int) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: freecache.NewCache(cacheSizeBytes),
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) (string, bool, error) {
	if cached, err := s.cache.Get([]byte(key)); err == nil {
		return string(cached), true, nil
	} else if !errors.Is(err, freecache.ErrNotFound) {
		log.Debugf("kv cache get %s: %s", key, err)
	}

	value, found, err := s.next.Get(ctx, key)
	if err != nil || !found {
		return value, found, err
	}

	s.put(key, value)
	return value, true, nil
}

func (s *CachedStore) Set(ctx context.Context, key, value string) error {
	if err := s.next.Set(ctx, key, value); err != nil {
		// the underlying value is unknown now, next read must hit the store
		s.cache.Del([]byte(key))
		return err
	}
	s.put(key, value)
	return nil
}

func (s *CachedStore) put(key, value string) {
	if err := s.cache.Set([]byte(key), []byte(value), cacheExpireSeconds); err != nil {
		s.cache.Del([]byte(key))
		log.Debugf("kv cache set %s (%d bytes): %s", key, len(value), err)
	}
}

func (s *CachedStore) Close() error {
	s.cache.Clear()
	return s.next.Close()
}

// Package kvstore is the storage collaborator of the tracker: a plain
// string key-value store. Every value is a whole serialized collection, so the
// only operations needed are a full read and a full write of one key.
package kvstore

import (
	"context"
	"errors"
	"io"
)

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrInvalidKey     = errors.New("invalid storage key")
)

//go:generate mockgen -source=$GOFILE -destination=kvstoremock/store.go -package=kvstoremock

// Store reads and writes text values by key.
// Get returns found=false (and no error) when the key was never written.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Backend is a Store owning resources (connections, files) that must be released.
type Backend interface {
	Store
	io.Closer
}

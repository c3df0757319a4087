// Package kvstore is the JSON key-value layer used for carts and checkout
// sessions. Redis backs it in production, an in-process map in tests and
// single-node dev runs.
package kvstore

import (
	"context"
	"errors"
	"time"
)

var ErrMiss = errors.New("kvstore: key not found")

type Store interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

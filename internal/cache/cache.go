package cache

import "context"

// SettingsCache is a short-TTL read-through cache in front of the system
// settings store. A miss returns found=false with no error.
type SettingsCache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

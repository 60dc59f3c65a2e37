package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenDenylist keeps revoked token ids in process memory until the token
// would have expired anyway.
type TokenDenylist struct {
	cache *cache.Cache
}

func NewTokenDenylist() *TokenDenylist {
	// Entries carry their own expiration; expired ones are purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &TokenDenylist{
		cache: c,
	}
}

func (d *TokenDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	d.cache.Set(jti, struct{}{}, ttl)
	return nil
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, found := d.cache.Get(jti)
	return found, nil
}

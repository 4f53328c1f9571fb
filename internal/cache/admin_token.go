package cache

import (
	"context"
	"sync"
	"time"
)

// revoked admin token ids when redis is off, single process only
var localRevoked sync.Map // jti -> expiry time.Time

func revokedTokenKey(jti string) string {
	return "auth:admin:revoked:" + jti
}

// RevokeAdminToken blocks a token id until it would have expired anyway
func RevokeAdminToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return nil
	}
	if !Enabled() {
		localRevoked.Store(jti, expiresAt)
		return nil
	}
	return redisClient.Set(ctx, buildKey(revokedTokenKey(jti)), "1", ttl).Err()
}

// IsAdminTokenRevoked reports whether a token id was logged out
func IsAdminTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	if !Enabled() {
		value, ok := localRevoked.Load(jti)
		if !ok {
			return false, nil
		}
		if time.Now().After(value.(time.Time)) {
			localRevoked.Delete(jti)
			return false, nil
		}
		return true, nil
	}
	n, err := redisClient.Exists(ctx, buildKey(revokedTokenKey(jti))).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

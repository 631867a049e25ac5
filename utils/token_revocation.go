package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const revokedPrefix = "jwt:revoked:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// revocationKey prefers the token ID and falls back to a digest of the raw token.
func revocationKey(jti, token string) string {
	if jti != "" {
		return jti
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RevokeToken marks a token as revoked until it would have expired anyway.
func RevokeToken(ctx context.Context, jti, token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	key := revocationKey(jti, token)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, revokedPrefix+key, "1", ttl).Err(); err == nil {
			return
		}
	}
	revokedMu.Lock()
	revoked[key] = expiresAt
	revokedMu.Unlock()
}

// IsTokenRevoked reports whether the token was revoked. Redis errors fail open.
func IsTokenRevoked(ctx context.Context, jti, token string) bool {
	key := revocationKey(jti, token)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, revokedPrefix+key).Result()
		if err == nil && n > 0 {
			return true
		}
	}

	revokedMu.RLock()
	exp, ok := revoked[key]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		revokedMu.Lock()
		delete(revoked, key)
		revokedMu.Unlock()
		return false
	}
	return true
}

package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RevokedTokenKey returns the cache key marking a token ID as logged out
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// AuthRateLimitKey returns the cache key counting auth requests of one client
// inside a fixed window
func (r *CacheKeyStruct) AuthRateLimitKey(clientIP string, window int64) string {
	return fmt.Sprintf("ratelimit:auth:%s:%d", clientIP, window)
}

var CacheKey = NewCacheKeyStruct()

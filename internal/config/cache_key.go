package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the Redis key holding the active login JTI
// for a candidate. One key per candidate enforces single-device login.
func (r *CacheKeyStruct) CandidateSessionKey(userID int64) string {
	return fmt.Sprintf("login:candidate:%d", userID)
}

var CacheKey = NewCacheKeyStruct()

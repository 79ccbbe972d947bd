package redis

import (
	"fmt"

	"github.com/microparty/microparty/internal/model"
)

// Key prefix for all session data
const keyPrefix = "microparty"

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionIndexKey returns the Redis key for the SET of all session ids
func sessionIndexKey() string {
	return fmt.Sprintf("%s:sessions", keyPrefix)
}

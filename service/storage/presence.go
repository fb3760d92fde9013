package storage

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// presence key: chat:presence:<user_id>
// Value is the gateway id the user is connected to; the TTL bounds how long
// a crashed gateway can leave a stale online record behind.
func presenceKey(user int64) string {
	return "chat:presence:" + strconv.FormatInt(user, 10)
}

// PresenceOnline marks the user online on gatewayID and renews the TTL.
func PresenceOnline(user int64, gatewayID string, ttl time.Duration) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceOffline deletes the presence key.
func PresenceOffline(user int64) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup reports whether the user is online anywhere and on which
// gateway.
func PresenceLookup(user int64) (gatewayID string, online bool, err error) {
	if rdb == nil {
		return "", false, errors.New("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

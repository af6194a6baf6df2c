package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veles-tales/wildlands/internal/constants"
	"github.com/veles-tales/wildlands/internal/duel"
	"github.com/veles-tales/wildlands/internal/expedition"
	"github.com/veles-tales/wildlands/internal/logging"
)

func expeditionKey(playerID int64) string {
	return "wildlands:expedition:" + strconv.FormatInt(playerID, 10)
}

func duelKey(duelID uint) string {
	return "wildlands:duel:" + strconv.FormatUint(uint64(duelID), 10)
}

func duelLockKey(duelID uint) string {
	return "wildlands:duel_lock:" + strconv.FormatUint(uint64(duelID), 10)
}

// NewRedisClient parses a redis URL and returns a connected client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// RedisExpeditionStore persists expedition snapshots as JSON with a TTL.
type RedisExpeditionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisExpeditionStore(client *redis.Client, ttl time.Duration) *RedisExpeditionStore {
	return &RedisExpeditionStore{client: client, ttl: ttl}
}

func (s *RedisExpeditionStore) Load(ctx context.Context, playerID int64) (*expedition.State, error) {
	key := expeditionKey(playerID)
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st expedition.State
	if err := json.Unmarshal(raw, &st); err != nil {
		// A corrupt entry is unrecoverable; discard it and report absence
		// so the player can start fresh.
		logging.Warn("expedition store: discarding corrupt state", err, logging.Fields{constants.LogFieldPlayerID: playerID})
		s.client.Del(ctx, key)
		return nil, nil
	}
	return &st, nil
}

func (s *RedisExpeditionStore) Save(ctx context.Context, st *expedition.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, expeditionKey(st.PlayerID), raw, s.ttl).Err()
}

func (s *RedisExpeditionStore) Clear(ctx context.Context, playerID int64) error {
	return s.client.Del(ctx, expeditionKey(playerID)).Err()
}

// RedisDuelStore persists duel snapshots as JSON with a TTL. Each save
// refreshes the TTL, so an active duel stays alive as long as either side
// keeps playing.
type RedisDuelStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDuelStore(client *redis.Client, ttl time.Duration) *RedisDuelStore {
	return &RedisDuelStore{client: client, ttl: ttl}
}

func (s *RedisDuelStore) Load(ctx context.Context, duelID uint) (*duel.State, error) {
	key := duelKey(duelID)
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st duel.State
	if err := json.Unmarshal(raw, &st); err != nil {
		logging.Warn("duel store: discarding corrupt state", err, logging.Fields{constants.LogFieldDuelID: duelID})
		s.client.Del(ctx, key)
		return nil, nil
	}
	return &st, nil
}

func (s *RedisDuelStore) Save(ctx context.Context, st *duel.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, duelKey(st.DuelID), raw, s.ttl).Err()
}

// RedisTurnLock serializes duel turns with SET NX. The TTL is the upper
// bound on how long a crashed holder can block the duel; normal turns
// release explicitly.
type RedisTurnLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTurnLock(client *redis.Client, ttl time.Duration) *RedisTurnLock {
	return &RedisTurnLock{client: client, ttl: ttl}
}

func (l *RedisTurnLock) Acquire(ctx context.Context, duelID uint) (bool, error) {
	return l.client.SetNX(ctx, duelLockKey(duelID), 1, l.ttl).Result()
}

func (l *RedisTurnLock) Release(ctx context.Context, duelID uint) {
	if err := l.client.Del(ctx, duelLockKey(duelID)).Err(); err != nil {
		logging.Warn("turn lock: release failed, waiting for TTL", err, logging.Fields{constants.LogFieldDuelID: duelID})
	}
}

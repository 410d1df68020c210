package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// appendIfExists pushes ARGV[2..] onto KEYS[1] only when the list exists and
// refreshes its TTL (ARGV[1], milliseconds).
var appendIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
    return 0
end
for i = 2, #ARGV do
    redis.call("RPUSH", KEYS[1], ARGV[i])
end
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return 1
`)

// resetIfExists replaces the list at KEYS[1] with ARGV[2] only when it still
// exists, so an expired session is never recreated.
var resetIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
    return 0
end
redis.call("DEL", KEYS[1])
redis.call("RPUSH", KEYS[1], ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return 1
`)

// RedisStore keeps each session as a JSON-encoded Redis list that expires
// after ttl of inactivity.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string { return "chat:session:" + id }

func encodeMessages(msgs []Message) ([]any, error) {
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}

func (s *RedisStore) Create(ctx context.Context, seed Message) (string, error) {
	id := newSessionID()
	if err := s.replace(ctx, sessionKey(id), seed); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	vals, err := encodeMessages(msgs)
	if err != nil {
		return err
	}
	args := append([]any{s.ttl.Milliseconds()}, vals...)

	ok, err := appendIfExists.Run(ctx, s.client, []string{sessionKey(sessionID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("chat append: %w", err)
	}
	if ok == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, sessionID string) ([]Message, error) {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("chat list: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrSessionNotFound
	}

	out := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("chat decode: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisStore) Reset(ctx context.Context, sessionID string, seed Message) error {
	vals, err := encodeMessages([]Message{seed})
	if err != nil {
		return err
	}

	ok, err := resetIfExists.Run(ctx, s.client, []string{sessionKey(sessionID)}, s.ttl.Milliseconds(), vals[0]).Int()
	if err != nil {
		return fmt.Errorf("chat reset: %w", err)
	}
	if ok == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) replace(ctx context.Context, key string, seed Message) error {
	vals, err := encodeMessages([]Message{seed})
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.RPush(ctx, key, vals...)
		p.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("chat write: %w", err)
	}
	return nil
}

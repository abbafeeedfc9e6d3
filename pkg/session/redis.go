package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix はRedisキーの既定の接頭辞。
const DefaultRedisPrefix = "sess"

// RedisStore はRedisにJSON形式でセッションを保存する。
// 有効期限はRedisのTTLで管理する。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore は新しいRedisStoreを生成する。prefixが空の場合は DefaultRedisPrefix を使う。
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// key はセッションIDに対応するRedisキーを返す。
func (r *RedisStore) key(id string) string {
	return r.prefix + ":" + id
}

// Load はIDに対応するセッションを返す。
func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Redisからのセッション取得に失敗: %w", err)
	}
	return decode(data)
}

// Save はセッションをttl付きで保存する。
func (r *RedisStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("Redisへのセッション保存に失敗: %w", err)
	}
	return nil
}

// Delete はセッションを削除する。
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("Redisからのセッション削除に失敗: %w", err)
	}
	return nil
}

// Close はRedisクライアントを閉じる。
func (r *RedisStore) Close() error {
	return r.client.Close()
}

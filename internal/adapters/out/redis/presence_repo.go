package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/out"
)

const (
	// 在线状态Key前缀
	presenceKeyPrefix = "collab:presence:"
	// 光标Key前缀
	cursorKeyPrefix = "collab:cursor:"
	// 热数据过期时间，比房间空闲回收阈值略长，断连残留靠TTL兜底清掉
	hotStateTTL = 45 * time.Minute
)

// PresenceRepositoryRedis Redis在线状态仓储实现
type PresenceRepositoryRedis struct {
	client *redis.Client
}

func NewPresenceRepositoryRedis(client *redis.Client) out.PresenceRepository {
	return &PresenceRepositoryRedis{client: client}
}

func presenceKey(connectionID string) string {
	return fmt.Sprintf("%s%s", presenceKeyPrefix, connectionID)
}

func (r *PresenceRepositoryRedis) Save(ctx context.Context, presence *entity.UserPresenceState) error {
	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, presenceKey(presence.ConnectionID), string(data), hotStateTTL).Err()
}

func (r *PresenceRepositoryRedis) Remove(ctx context.Context, connectionID string) error {
	return r.client.Del(ctx, presenceKey(connectionID)).Err()
}

// CursorRepositoryRedis Redis光标仓储实现
type CursorRepositoryRedis struct {
	client *redis.Client
}

func NewCursorRepositoryRedis(client *redis.Client) out.CursorRepository {
	return &CursorRepositoryRedis{client: client}
}

func cursorKey(connectionID string) string {
	return fmt.Sprintf("%s%s", cursorKeyPrefix, connectionID)
}

func (r *CursorRepositoryRedis) Save(ctx context.Context, cursor *entity.CursorState) error {
	data, err := json.Marshal(cursor)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cursorKey(cursor.ConnectionID), string(data), hotStateTTL).Err()
}

func (r *CursorRepositoryRedis) Remove(ctx context.Context, connectionID string) error {
	return r.client.Del(ctx, cursorKey(connectionID)).Err()
}

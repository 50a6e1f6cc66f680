package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/EthanQC/collab/internal/ports/out"
)

// 用户展示信息缓存Key前缀，身份服务写入，这里只读
const userKeyPrefix = "collab:user:"

// UserDirectoryRedis Redis用户信息查询实现
type UserDirectoryRedis struct {
	client *redis.Client
}

func NewUserDirectoryRedis(client *redis.Client) out.UserDirectory {
	return &UserDirectoryRedis{client: client}
}

func (r *UserDirectoryRedis) GetProfile(ctx context.Context, userID string) (*out.UserProfile, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf("%s%s", userKeyPrefix, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var profile out.UserProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

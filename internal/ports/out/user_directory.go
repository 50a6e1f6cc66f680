package out

import "context"

// UserProfile 用户展示信息
type UserProfile struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// UserDirectory 用户信息查询接口
// 身份体系在本服务之外，这里只读缓存，查不到时调用方自行兜底
type UserDirectory interface {
	// GetProfile 按用户 ID 查询展示信息，缓存未命中返回 nil
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
}

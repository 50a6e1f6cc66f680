package zlog

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

// WithContext 把带连接标识字段的 logger 挂到 ctx 上
// 接入层在连接建立时挂一次，整条链路的日志就都带上连接信息
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext 取出 ctx 上的 logger，没有就退回全局
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.L()
	}
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.L()
}

// C FromContext 的简写
func C(ctx context.Context) *zap.Logger { return FromContext(ctx) }

package out

import (
	"time"

	"github.com/EthanQC/collab/internal/domain/entity"
)

// ClientConn 房间参与者的下行通道
// 由接入层实现，Send 失败意味着连接已不可用，调用方负责把它从房间剔除
type ClientConn interface {
	// Send 投递一条下行消息，不保证送达，只保证入队
	Send(msg *entity.ServerMessage) error

	// Close 关闭底层连接，可重复调用
	Close() error
}

// Clock 可注入时钟，测试用假时钟推进虚拟时间
type Clock interface {
	Now() time.Time
}

// SystemClock 真实时钟
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

package application

import "sync"

// cursorPalette 光标配色盘
// 按用户首次出现的顺序轮转分配，用户数超过盘子大小后允许撞色
var cursorPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

// colorAssigner 进程生命周期内按用户 ID 固定颜色
// 重连拿到的还是同一个颜色
type colorAssigner struct {
	mu     sync.Mutex
	byUser map[string]string
	next   int
}

func newColorAssigner() *colorAssigner {
	return &colorAssigner{byUser: make(map[string]string)}
}

// ColorFor 返回用户的颜色，首次出现时分配
func (a *colorAssigner) ColorFor(userID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.byUser[userID]; ok {
		return c
	}
	c := cursorPalette[a.next%len(cursorPalette)]
	a.next++
	a.byUser[userID] = c
	return c
}

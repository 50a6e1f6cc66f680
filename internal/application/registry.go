package application

import "sync"

// registry 进程内全局注册表：所有房间和所有连接
// 注册表锁只保护两张表本身，房间内部状态由各房间自己的锁保护；
// 嵌套时固定先拿房间锁再拿注册表锁
type registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room       // projectID -> room
	conns map[string]*Connection // connectionID -> conn
}

func newRegistry() registry {
	return registry{
		rooms: make(map[string]*Room),
		conns: make(map[string]*Connection),
	}
}

// findOrCreate 返回项目对应的房间，不存在时用 build 建一个
// 第二个返回值表示是否新建
func (g *registry) findOrCreate(projectID string, build func() *Room) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[projectID]; ok {
		return r, false
	}
	r := build()
	g.rooms[projectID] = r
	return r, true
}

// addConn 登记连接
func (g *registry) addConn(c *Connection) {
	g.mu.Lock()
	g.conns[c.ID] = c
	g.mu.Unlock()
}

// lookup 按连接 ID 找到连接及其房间
func (g *registry) lookup(connectionID string) (*Connection, *Room) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c := g.conns[connectionID]
	if c == nil {
		return nil, nil
	}
	return c, g.rooms[c.ProjectID]
}

// removeConn 摘除连接登记，返回连接及其所在房间
func (g *registry) removeConn(connectionID string) (*Connection, *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := g.conns[connectionID]
	if c == nil {
		return nil, nil
	}
	delete(g.conns, connectionID)
	return c, g.rooms[c.ProjectID]
}

// deleteRoom 摘除房间登记
func (g *registry) deleteRoom(projectID string) {
	g.mu.Lock()
	delete(g.rooms, projectID)
	g.mu.Unlock()
}

// allRooms 返回当前全部房间，供清理器扫描
func (g *registry) allRooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// dropRoom 整体摘除一个房间及其全部连接登记，返回被摘除的连接
func (g *registry) dropRoom(r *Room, connIDs []string) {
	g.mu.Lock()
	delete(g.rooms, r.projectID)
	for _, id := range connIDs {
		delete(g.conns, id)
	}
	g.mu.Unlock()
}

// roomCount 当前房间数
func (g *registry) roomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// room 按项目 ID 查房间
func (g *registry) room(projectID string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[projectID]
}

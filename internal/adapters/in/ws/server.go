package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/in"
	"github.com/EthanQC/collab/pkg/zlog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 生产环境应该验证Origin
	},
}

// Server WebSocket 接入层
type Server struct {
	usecase in.RoomUseCase
}

// NewServer 创建接入层
func NewServer(usecase in.RoomUseCase) *Server {
	return &Server{usecase: usecase}
}

// ServeWS 处理 /ws 升级请求
// project_id 和 user_id 缺一不可，缺了直接拒绝
func (s *Server) ServeWS(c *gin.Context) {
	projectID := c.Query("project_id")
	userID := c.Query("user_id")
	if projectID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id and user_id are required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(s, conn, userID, projectID)

	// 先入房间：快照消息会先进入下行缓冲，writePump 启动后第一批发出
	snap, err := s.usecase.Join(c.Request.Context(), projectID, userID, client)
	if err != nil {
		zap.L().Warn("join room failed",
			zap.String("project_id", projectID),
			zap.String("user_id", userID),
			zap.Error(err))
		// writePump 还没起，直接写一条再关
		_ = conn.WriteJSON(entity.NewServerMessage(entity.MsgError,
			&entity.ErrorPayload{Message: "join failed: " + err.Error()},
			userID, "", time.Now()))
		_ = client.Close()
		return
	}
	client.connectionID = snap.ConnectionID
	client.sessionID = snap.SessionID

	// 连接生命周期和 HTTP 请求无关，logger 挂在独立的 ctx 上
	client.ctx = zlog.WithContext(context.Background(), zap.L().With(
		zap.String("project_id", projectID),
		zap.String("user_id", userID),
		zap.String("connection_id", snap.ConnectionID)))

	zlog.C(client.ctx).Info("client connected")

	go client.writePump()
	go client.readPump()
}

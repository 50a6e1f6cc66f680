package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	wsAdapter "github.com/EthanQC/collab/internal/adapters/in/ws"
	"github.com/EthanQC/collab/internal/adapters/out/db"
	"github.com/EthanQC/collab/internal/adapters/out/mq"
	redisAdapter "github.com/EthanQC/collab/internal/adapters/out/redis"
	"github.com/EthanQC/collab/internal/application"
	"github.com/EthanQC/collab/internal/ports/out"
	"github.com/EthanQC/collab/pkg/zlog"
)

func main() {
	// 加载配置
	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logCfg, err := zlog.FromViper(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load log config: %v\n", err)
		os.Exit(1)
	}
	logCfg.Service = "collab-server"
	zlog.MustInitGlobal(*logCfg)
	defer func() { _ = zap.L().Sync() }()
	zlog.RegisterMetrics(prometheus.DefaultRegisterer)

	logger := zap.L()
	logger.Info("collab server starting", zap.String("env", appEnv()))

	// 初始化MySQL
	database, err := initDB()
	if err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}

	// 初始化Redis
	redisClient, err := initRedis()
	if err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis 连接成功")

	// 初始化Kafka发布器，不配置brokers时关闭事件发布
	var eventPublisher out.EventPublisher
	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		eventPublisher, err = mq.NewKafkaEventPublisher(brokers)
		if err != nil {
			logger.Fatal("Failed to init kafka publisher", zap.Error(err))
		}
		defer eventPublisher.Close()
	} else {
		logger.Warn("kafka brokers not configured, room events disabled")
	}

	// 初始化仓储层
	repos := application.Repositories{
		Sessions:   db.NewSessionRepositoryMySQL(database),
		Presence:   redisAdapter.NewPresenceRepositoryRedis(redisClient),
		Cursors:    redisAdapter.NewCursorRepositoryRedis(redisClient),
		Operations: db.NewOperationRepositoryMySQL(database),
		Locks:      db.NewLockRepositoryMySQL(database),
		Chats:      db.NewChatRepositoryMySQL(database),
	}
	userDirectory := redisAdapter.NewUserDirectoryRedis(redisClient)

	// 初始化应用层
	roomService := application.NewRoomService(repos, userDirectory, eventPublisher, out.SystemClock{}, application.Config{
		OpBufferCap: viper.GetInt("collab.op_buffer_cap"),
		IdleTimeout: viper.GetDuration("collab.idle_timeout"),
	})

	// 启动空闲房间清理器
	reaper := application.NewReaper(roomService, viper.GetDuration("collab.reap_interval"))
	reaper.Start()

	// 初始化HTTP服务器
	if appEnv() != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	wsServer := wsAdapter.NewServer(roomService)
	router.GET("/ws", wsServer.ServeWS)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Any("/log/level", gin.WrapF(zlog.LevelHTTPHandler()))

	httpPort := viper.GetInt("server.http_port")
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", httpPort),
		Handler: router,
	}
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", httpPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("Server exited properly")
}

func appEnv() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	return env
}

func loadConfig() error {
	viper.SetConfigName(fmt.Sprintf("config.%s", appEnv()))
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	return viper.ReadInConfig()
}

func initDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		viper.GetString("mysql.user"),
		viper.GetString("mysql.password"),
		viper.GetString("mysql.addr"),
		viper.GetString("mysql.database"),
	)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

func initRedis() (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
		PoolSize: viper.GetInt("redis.pool_size"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"guard-roster/config"
	"guard-roster/internal/api/handler"
	"guard-roster/internal/api/router"
	"guard-roster/internal/dto"
	"guard-roster/internal/repository"
	"guard-roster/internal/service"
	"guard-roster/internal/worker"
	"guard-roster/pkg/database"
	"guard-roster/pkg/jwt"
	applogger "guard-roster/pkg/logger"
	"guard-roster/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("ROSTER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("roster_timezone", cfg.Roster.Timezone),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，黑名单、限流与滚动互斥将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 注册自定义校验标签
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			logger.Fatal("注册校验标签失败", zap.Error(err))
		}
	}

	// 6. 依赖注入: Repository → Service → Handler
	settings, err := service.NewSettings(&cfg.Roster)
	if err != nil {
		logger.Fatal("排班参数无效", zap.Error(err))
	}
	repo := repository.NewRepository(db)
	svc := service.NewService(settings, repo, logger)

	checks := map[string]func(context.Context) error{
		"postgres": sqlDB.PingContext,
		"schema":   database.SchemaCheck(sqlDB),
	}
	if rdb != nil {
		checks["redis"] = rdb.Ping
	}
	h := handler.NewHandler(svc, checks)

	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 月度滚动任务
	var rollover *worker.Rollover
	if cfg.Roster.RolloverEnabled {
		var locker worker.Locker
		if rdb != nil {
			locker = rdb
		}
		rollover, err = worker.NewRollover(svc.Roster, locker, cfg.Roster.RolloverCron, settings.Location, logger)
		if err != nil {
			logger.Fatal("初始化月度滚动失败", zap.Error(err))
		}
		rollover.Start()
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待进行中的滚动任务结束
	if rollover != nil {
		select {
		case <-rollover.Stop().Done():
		case <-ctx.Done():
			logger.Warn("滚动任务未在超时内结束")
		}
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

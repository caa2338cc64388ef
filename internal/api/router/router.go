package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guard-roster/config"
	"guard-roster/internal/api/handler"
	"guard-roster/internal/api/middleware"
	"guard-roster/pkg/jwt"
	"guard-roster/pkg/redis"
)

// 授权标签组合
var (
	roleWriters     = []string{middleware.RoleAdmin}
	planners        = []string{middleware.RoleAdmin, middleware.RoleSupervisor}
	operators       = []string{middleware.RoleAdmin, middleware.RoleSupervisor, middleware.RoleOperator}
	ledgerReaders   = []string{middleware.RoleAdmin, middleware.RoleSupervisor, middleware.RolePayroll}
	ledgerFinalizer = []string{middleware.RoleAdmin, middleware.RolePayroll}
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：黑名单检查与写限流随之降级
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// ── API v1（全部需要认证） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	v1.Use(middleware.WriteRateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window))
	{
		// 轮班模式
		roles := v1.Group("/roles")
		{
			roles.GET("", h.Role.ListRoles)
			roles.GET("/:id", h.Role.GetRole)
			roles.POST("", middleware.RoleAuth(roleWriters...), h.Role.CreateRole)
			roles.PUT("/:id", middleware.RoleAuth(roleWriters...), h.Role.UpdateRole)
			roles.DELETE("/:id", middleware.RoleAuth(roleWriters...), h.Role.DeactivateRole)
		}

		// 岗位登记
		posts := v1.Group("/posts")
		{
			posts.GET("", h.Post.ListPosts)
			posts.GET("/pending", h.Post.ListPendingCoverage)
			posts.GET("/staffing", h.Post.StaffingSummary)
			posts.GET("/:id", h.Post.GetPost)
			posts.POST("/batch", middleware.RoleAuth(planners...), h.Post.CreatePosts)
			posts.POST("/deactivate", middleware.RoleAuth(planners...), h.Post.DeactivatePosts)
			posts.PUT("/:id/guard", middleware.RoleAuth(planners...), h.Post.AssignGuard)
			posts.DELETE("/:id/guard", middleware.RoleAuth(planners...), h.Post.UnassignGuard)
			posts.PUT("/:id/cycle-offset", middleware.RoleAuth(planners...), h.Post.SetCycleOffset)
		}

		// 月度排班
		roster := v1.Group("/roster")
		{
			roster.GET("", h.Roster.ListPostMonth)
			roster.GET("/installation", h.Roster.ListInstallationRange)
			roster.GET("/day", h.Roster.ListDay)
			roster.POST("/generate", middleware.RoleAuth(planners...), h.Roster.Generate)
			roster.POST("/regenerate-day", middleware.RoleAuth(planners...), h.Roster.RegenerateDay)

			entries := roster.Group("/entries/:id")
			{
				entries.GET("", h.Roster.GetEntry)
				entries.GET("/logs", h.Roster.ListChangeLogs)

				// 考勤迁移与补位
				transitions := entries.Group("", middleware.RoleAuth(operators...))
				transitions.POST("/worked", h.Attendance.MarkWorked)
				transitions.POST("/absent", h.Attendance.MarkAbsent)
				transitions.POST("/undo", h.Attendance.Undo)
				transitions.POST("/replacement", h.Attendance.RegisterReplacement)
				transitions.POST("/coverage", h.Attendance.AssignCoverage)
			}
		}

		// 加班台账
		extras := v1.Group("/extra-shifts")
		{
			extras.GET("", middleware.RoleAuth(ledgerReaders...), h.Ledger.ListExtraShifts)
			extras.GET("/:id", middleware.RoleAuth(ledgerReaders...), h.Ledger.GetExtraShift)
			extras.POST("/:id/pay", middleware.RoleAuth(ledgerFinalizer...), h.Ledger.MarkPaid)
			extras.POST("/:id/cancel", middleware.RoleAuth(ledgerFinalizer...), h.Ledger.Cancel)
			extras.POST("/:id/detach", middleware.RoleAuth(planners...), h.Ledger.Detach)
			extras.POST("/:id/reverse", middleware.RoleAuth(middleware.RoleAdmin), h.Ledger.ReversePayment)
		}

		// 导出
		export := v1.Group("/export")
		{
			export.GET("/roster.xlsx", middleware.RoleAuth(planners...), h.Export.ExportRoster)
			export.GET("/guards/:id/roster.ics", middleware.RoleAuth(operators...), h.Export.ExportGuardCalendar)
		}
	}

	return r
}

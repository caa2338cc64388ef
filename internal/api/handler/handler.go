package handler

import (
	"context"

	"guard-roster/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Role       *RoleHandler
	Post       *PostHandler
	Roster     *RosterHandler
	Attendance *AttendanceHandler
	Ledger     *LedgerHandler
	Export     *ExportHandler
	Health     *HealthHandler
}

// NewHandler 创建 Handler 聚合
// checks 为健康检查依赖（名称 → Ping），Redis 未启用时不传
func NewHandler(svc *service.Service, checks map[string]func(context.Context) error) *Handler {
	return &Handler{
		Role:       NewRoleHandler(svc.Role),
		Post:       NewPostHandler(svc.Post),
		Roster:     NewRosterHandler(svc.Roster),
		Attendance: NewAttendanceHandler(svc.Attendance, svc.Coverage),
		Ledger:     NewLedgerHandler(svc.Ledger),
		Export:     NewExportHandler(svc.Export),
		Health:     NewHealthHandler(checks),
	}
}

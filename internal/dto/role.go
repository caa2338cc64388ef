package dto

import "github.com/shopspring/decimal"

// ── 轮班模式 DTO ──

// CreateRoleRequest 创建轮班模式请求
type CreateRoleRequest struct {
	Name       string          `json:"name"        binding:"required,min=1,max=100"`
	WorkDays   int             `json:"work_days"   binding:"required,min=1,max=31"`
	RestDays   int             `json:"rest_days"   binding:"min=0,max=31"`
	ShiftHours decimal.Decimal `json:"shift_hours"`
	StartTime  string          `json:"start_time"  binding:"required,hhmm"`
	EndTime    string          `json:"end_time"    binding:"required,hhmm"`
}

// UpdateRoleRequest 修改轮班模式请求（只影响之后生成的排班）
type UpdateRoleRequest struct {
	Name       string          `json:"name"        binding:"required,min=1,max=100"`
	WorkDays   int             `json:"work_days"   binding:"required,min=1,max=31"`
	RestDays   int             `json:"rest_days"   binding:"min=0,max=31"`
	ShiftHours decimal.Decimal `json:"shift_hours"`
	StartTime  string          `json:"start_time"  binding:"required,hhmm"`
	EndTime    string          `json:"end_time"    binding:"required,hhmm"`
	Version    int             `json:"version"     binding:"omitempty,min=1"`
}

// RoleListRequest 轮班模式列表查询参数
type RoleListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// RoleResponse 轮班模式响应
type RoleResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	WorkDays        int    `json:"work_days"`
	RestDays        int    `json:"rest_days"`
	CycleLength     int    `json:"cycle_length"`
	ShiftHours      string `json:"shift_hours"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	CrossesMidnight bool   `json:"crosses_midnight"`
	IsActive        bool   `json:"is_active"`
	Version         int    `json:"version"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

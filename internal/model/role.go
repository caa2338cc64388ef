package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Role 轮班模式表 — 对应 roles
// 上 WorkDays 天、休 RestDays 天循环；修改只影响之后的排班生成
type Role struct {
	RoleID     string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"role_id"`
	TenantID   string          `gorm:"type:uuid;not null"                             json:"tenant_id"`
	Name       string          `gorm:"type:varchar(100);not null"                     json:"name"`
	WorkDays   int             `gorm:"type:smallint;not null"                         json:"work_days"`
	RestDays   int             `gorm:"type:smallint;not null"                         json:"rest_days"`
	ShiftHours decimal.Decimal `gorm:"type:numeric(4,2);not null"                     json:"shift_hours"`
	StartTime  string          `gorm:"type:time;not null"                             json:"start_time"`
	EndTime    string          `gorm:"type:time;not null"                             json:"end_time"`
	IsActive   bool            `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }

// CycleLength 周期长度
func (r *Role) CycleLength() int { return r.WorkDays + r.RestDays }

// ValidCycle 周期是否合法：至少上 1 天且周期长度 ≥ 2
func (r *Role) ValidCycle() bool {
	return r.WorkDays >= 1 && r.RestDays >= 0 && r.CycleLength() >= 2
}

// CrossesMidnight 班次是否跨越午夜（结束时间不晚于开始时间）
func (r *Role) CrossesMidnight() bool {
	return ClockHHMM(r.EndTime) <= ClockHHMM(r.StartTime)
}

// ClockHHMM 将数据库返回的 HH:MM:SS 规整为 HH:MM
func ClockHHMM(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

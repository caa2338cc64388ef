package dto

import "github.com/shopspring/decimal"

// ── 月度排班 DTO ──

// GenerateRosterRequest 生成月度排班请求（PostID 与 InstallationID 二选一）
type GenerateRosterRequest struct {
	PostID         string `json:"post_id"         binding:"omitempty,uuid"`
	InstallationID string `json:"installation_id" binding:"omitempty,uuid"`
	Year           int    `json:"year"            binding:"required,min=2000,max=2100"`
	Month          int    `json:"month"           binding:"required,min=1,max=12"`
}

// GenerateRosterResponse 生成结果
type GenerateRosterResponse struct {
	Created   int64                 `json:"created"`
	PostCount int                   `json:"post_count"`
	Failed    []string              `json:"failed,omitempty"`
	Entries   []RosterEntryResponse `json:"entries,omitempty"`
}

// RegenerateDayRequest 补生成缺失日请求
type RegenerateDayRequest struct {
	PostID string `json:"post_id" binding:"required,uuid"`
	Year   int    `json:"year"    binding:"required,min=2000,max=2100"`
	Month  int    `json:"month"   binding:"required,min=1,max=12"`
	Day    int    `json:"day"     binding:"required,min=1,max=31"`
}

// RosterMonthRequest 岗位月度排班查询参数
type RosterMonthRequest struct {
	PostID string `form:"post_id" binding:"required,uuid"`
	Year   int    `form:"year"    binding:"required,min=2000,max=2100"`
	Month  int    `form:"month"   binding:"required,min=1,max=12"`
}

// RosterRangeRequest 安装点日期区间查询参数
type RosterRangeRequest struct {
	InstallationID string `form:"installation_id" binding:"required,uuid"`
	From           string `form:"from"            binding:"required,yyyymmdd"`
	To             string `form:"to"              binding:"required,yyyymmdd"`
}

// RosterDayRequest 单日查询参数（呼叫监控）
type RosterDayRequest struct {
	Date           string `form:"date"            binding:"required,yyyymmdd"`
	InstallationID string `form:"installation_id" binding:"omitempty,uuid"`
}

// RosterEntryResponse 排班条目响应，DisplayState 由状态与引用实时推导
type RosterEntryResponse struct {
	ID                string                 `json:"id"`
	PostID            string                 `json:"post_id"`
	PostName          string                 `json:"post_name,omitempty"`
	InstallationID    string                 `json:"installation_id"`
	GuardID           *string                `json:"guard_id"`
	Date              string                 `json:"date"`
	Year              int                    `json:"year"`
	Month             int                    `json:"month"`
	Day               int                    `json:"day"`
	State             string                 `json:"state"`
	DisplayState      string                 `json:"display_state"`
	SubstituteGuardID string                 `json:"substitute_guard_id,omitempty"`
	CoverageGuardID   string                 `json:"coverage_guard_id,omitempty"`
	ExtraShiftID      string                 `json:"extra_shift_id,omitempty"`
	Metadata          map[string]interface{} `json:"metadata"`
	ConsistencyIssues []string               `json:"consistency_issues,omitempty"`
	Version           int                    `json:"version"`
	UpdatedAt         string                 `json:"updated_at"`
}

// RosterChangeLogResponse 排班变更记录响应
type RosterChangeLogResponse struct {
	ID        string  `json:"id"`
	Action    string  `json:"action"`
	FromState string  `json:"from_state"`
	ToState   string  `json:"to_state"`
	GuardID   *string `json:"guard_id,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	ActorID   string  `json:"actor_id"`
	CreatedAt string  `json:"created_at"`
}

// ── 考勤迁移 DTO ──

// MarkAbsentRequest 标记缺勤请求
type MarkAbsentRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// ReplacementRequest 登记替班请求
type ReplacementRequest struct {
	SubstituteGuardID string           `json:"substitute_guard_id" binding:"required,uuid"`
	Motive            string           `json:"motive"              binding:"required,min=2,max=500"`
	Amount            *decimal.Decimal `json:"amount"`
}

// CoverageRequest 指派补位请求
type CoverageRequest struct {
	GuardID string           `json:"guard_id" binding:"required,uuid"`
	Motive  string           `json:"motive"   binding:"omitempty,max=500"`
	Amount  *decimal.Decimal `json:"amount"`
}

// UndoRequest 撤销请求
type UndoRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// TransitionResponse 迁移结果：条目 + 产生的台账记录（如有）
type TransitionResponse struct {
	Entry      RosterEntryResponse `json:"entry"`
	ExtraShift *ExtraShiftResponse `json:"extra_shift,omitempty"`
}

// ── 导出 DTO ──

// ExportRosterRequest 安装点月度排班导出参数
type ExportRosterRequest struct {
	InstallationID string `form:"installation_id" binding:"required,uuid"`
	Year           int    `form:"year"            binding:"required,min=2000,max=2100"`
	Month          int    `form:"month"           binding:"required,min=1,max=12"`
}

// GuardCalendarRequest 保安值班日历导出参数
type GuardCalendarRequest struct {
	From string `form:"from" binding:"required,yyyymmdd"`
	To   string `form:"to"   binding:"required,yyyymmdd"`
}

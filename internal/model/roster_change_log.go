package model

import "time"

// RosterChangeLog 排班变更记录表 — 对应 roster_change_logs（纯审计日志，仅追加）
type RosterChangeLog struct {
	ChangeLogID   string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_log_id"`
	TenantID      string      `gorm:"type:uuid;not null"                             json:"tenant_id"`
	RosterEntryID string      `gorm:"type:uuid;not null"                             json:"roster_entry_id"`
	Action        string      `gorm:"type:varchar(30);not null"                      json:"action"` // mark_worked | mark_absent | replacement | coverage | undo | resync
	FromState     RosterState `gorm:"type:varchar(20);not null"                      json:"from_state"`
	ToState       RosterState `gorm:"type:varchar(20);not null"                      json:"to_state"`
	GuardID       *string     `gorm:"type:uuid"                                      json:"guard_id,omitempty"`
	Reason        string      `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	ActorID       string      `gorm:"type:uuid;not null"                             json:"actor_id"`
	CreatedAt     time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (RosterChangeLog) TableName() string { return "roster_change_logs" }

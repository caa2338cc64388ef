package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtraShiftKind 加班来源
type ExtraShiftKind string

const (
	ExtraKindReplacement ExtraShiftKind = "replacement"
	ExtraKindCoverage    ExtraShiftKind = "coverage"
)

// PaymentStatus 支付状态，只能前进：pending → paid | cancelled
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

// ExtraShift 加班/替班台账 — 对应 extra_shifts
// 独立于产生它的排班条目：条目撤销不影响台账，脱钩后 Preserved=true 且来源为空。
type ExtraShift struct {
	ExtraShiftID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"extra_shift_id"`
	TenantID       string          `gorm:"type:uuid;not null"                             json:"tenant_id"`
	GuardID        string          `gorm:"type:uuid;not null"                             json:"guard_id"`
	InstallationID string          `gorm:"type:uuid;not null"                             json:"installation_id"`
	PostID         string          `gorm:"type:uuid;not null"                             json:"post_id"`
	RosterEntryID  *string         `gorm:"type:uuid"                                      json:"roster_entry_id,omitempty"`
	DutyDate       time.Time       `gorm:"type:date;not null"                             json:"duty_date"`
	Kind           ExtraShiftKind  `gorm:"type:varchar(20);not null"                      json:"kind"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"amount"`
	Motive         string          `gorm:"type:varchar(500)"                              json:"motive,omitempty"`
	PaymentStatus  PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'"    json:"payment_status"`
	PaymentBatchID *string         `gorm:"type:varchar(100)"                              json:"payment_batch_id,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	Preserved      bool            `gorm:"not null;default:false"                         json:"preserved"`
	VersionedModel
}

// TableName 指定表名
func (ExtraShift) TableName() string { return "extra_shifts" }

// IsFinal 已支付或已取消
func (x *ExtraShift) IsFinal() bool {
	return x.PaymentStatus == PaymentPaid || x.PaymentStatus == PaymentCancelled
}

// Detached 是否已与来源条目脱钩
func (x *ExtraShift) Detached() bool {
	return x.RosterEntryID == nil && x.Preserved
}

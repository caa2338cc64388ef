package dto

// ── 加班台账 DTO ──

// ExtraShiftListRequest 台账查询参数
type ExtraShiftListRequest struct {
	GuardID        string `form:"guard_id"        binding:"omitempty,uuid"`
	InstallationID string `form:"installation_id" binding:"omitempty,uuid"`
	Status         string `form:"status"          binding:"omitempty,oneof=pending paid cancelled"`
	From           string `form:"from"            binding:"omitempty,yyyymmdd"`
	To             string `form:"to"              binding:"omitempty,yyyymmdd"`
	PaginationRequest
}

// MarkPaidRequest 标记已支付请求
type MarkPaidRequest struct {
	BatchID string `json:"batch_id" binding:"required,min=1,max=100"`
}

// ReversePaymentRequest 冲正请求（管理员）
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// ExtraShiftResponse 台账记录响应
type ExtraShiftResponse struct {
	ID             string  `json:"id"`
	GuardID        string  `json:"guard_id"`
	InstallationID string  `json:"installation_id"`
	PostID         string  `json:"post_id"`
	RosterEntryID  *string `json:"roster_entry_id"`
	DutyDate       string  `json:"duty_date"`
	Kind           string  `json:"kind"`
	Amount         string  `json:"amount"`
	Motive         string  `json:"motive,omitempty"`
	PaymentStatus  string  `json:"payment_status"`
	PaymentBatchID *string `json:"payment_batch_id,omitempty"`
	PaidAt         *string `json:"paid_at,omitempty"`
	CancelledAt    *string `json:"cancelled_at,omitempty"`
	Preserved      bool    `json:"preserved"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
}

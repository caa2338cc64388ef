package handler

import (
	"github.com/gin-gonic/gin"

	"guard-roster/internal/dto"
	"guard-roster/internal/service"
	"guard-roster/pkg/response"
)

// LedgerHandler 加班台账 HTTP 处理器
type LedgerHandler struct {
	ledgerSvc service.LedgerService
}

// NewLedgerHandler 创建 LedgerHandler
func NewLedgerHandler(ledgerSvc service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// ListExtraShifts 台账分页查询（薪资系统按状态与日期拉取）
// GET /api/v1/extra-shifts
func (h *LedgerHandler) ListExtraShifts(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.ExtraShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	list, total, err := h.ledgerSvc.List(c.Request.Context(), tenantID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetExtraShift 台账记录详情
// GET /api/v1/extra-shifts/:id
func (h *LedgerHandler) GetExtraShift(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	record, err := h.ledgerSvc.GetByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, record)
}

// MarkPaid 标记已支付
// POST /api/v1/extra-shifts/:id/pay
func (h *LedgerHandler) MarkPaid(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	record, err := h.ledgerSvc.MarkPaid(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, record)
}

// Cancel 取消待支付记录
// POST /api/v1/extra-shifts/:id/cancel
func (h *LedgerHandler) Cancel(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	record, err := h.ledgerSvc.Cancel(c.Request.Context(), tenantID, c.Param("id"), callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, record)
}

// Detach 解除与排班条目的关联，记录本身保留
// POST /api/v1/extra-shifts/:id/detach
func (h *LedgerHandler) Detach(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	record, err := h.ledgerSvc.Detach(c.Request.Context(), tenantID, c.Param("id"), callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, record)
}

// ReversePayment 冲正已支付记录（仅管理员）
// POST /api/v1/extra-shifts/:id/reverse
func (h *LedgerHandler) ReversePayment(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	record, err := h.ledgerSvc.ReversePayment(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, record)
}

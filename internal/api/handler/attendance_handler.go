package handler

import (
	"github.com/gin-gonic/gin"

	"guard-roster/internal/dto"
	"guard-roster/internal/service"
	"guard-roster/pkg/response"
)

// AttendanceHandler 考勤迁移与补位 HTTP 处理器
// 所有迁移都作用于 /roster/entries/:id
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	coverageSvc   service.CoverageService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, coverageSvc service.CoverageService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc, coverageSvc: coverageSvc}
}

// MarkWorked 确认到岗
// POST /api/v1/roster/entries/:id/worked
func (h *AttendanceHandler) MarkWorked(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.MarkWorked(c.Request.Context(), tenantID, c.Param("id"), callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// MarkAbsent 标记缺勤（必须填写原因）
// POST /api/v1/roster/entries/:id/absent
func (h *AttendanceHandler) MarkAbsent(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.MarkAbsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.attendanceSvc.MarkAbsent(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// Undo 撤销迁移，条目回到计划状态（台账记录保留）
// POST /api/v1/roster/entries/:id/undo
func (h *AttendanceHandler) Undo(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UndoRequest
	// 请求体可省略
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handleBindError(c, err)
			return
		}
	}

	result, err := h.attendanceSvc.Undo(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// RegisterReplacement 登记替班，同时记入加班台账
// POST /api/v1/roster/entries/:id/replacement
func (h *AttendanceHandler) RegisterReplacement(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.coverageSvc.RegisterReplacement(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// AssignCoverage 为空缺条目指派补位，同时记入加班台账
// POST /api/v1/roster/entries/:id/coverage
func (h *AttendanceHandler) AssignCoverage(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.coverageSvc.AssignCoverage(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

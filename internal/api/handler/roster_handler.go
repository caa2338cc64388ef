package handler

import (
	"github.com/gin-gonic/gin"

	"guard-roster/internal/dto"
	"guard-roster/internal/service"
	"guard-roster/pkg/response"
)

// RosterHandler 月度排班 HTTP 处理器
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// Generate 生成月度排班（单岗位或整个安装点，幂等）
// POST /api/v1/roster/generate
func (h *RosterHandler) Generate(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.GenerateRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.rosterSvc.Generate(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// RegenerateDay 补生成某岗位缺失的单日条目
// POST /api/v1/roster/regenerate-day
func (h *RosterHandler) RegenerateDay(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.RegenerateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	entry, err := h.rosterSvc.RegenerateMissingDay(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.Created(c, entry)
}

// ListPostMonth 岗位月度排班
// GET /api/v1/roster?post_id=&year=&month=
func (h *RosterHandler) ListPostMonth(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.RosterMonthRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	entries, err := h.rosterSvc.ListPostMonth(c.Request.Context(), tenantID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// ListInstallationRange 安装点日期区间排班
// GET /api/v1/roster/installation?installation_id=&from=&to=
func (h *RosterHandler) ListInstallationRange(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.RosterRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	entries, err := h.rosterSvc.ListInstallationRange(c.Request.Context(), tenantID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// ListDay 单日排班（呼叫监控，仅活跃岗位）
// GET /api/v1/roster/day?date=&installation_id=
func (h *RosterHandler) ListDay(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.RosterDayRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	entries, err := h.rosterSvc.ListDay(c.Request.Context(), tenantID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// GetEntry 排班条目详情
// GET /api/v1/roster/entries/:id
func (h *RosterHandler) GetEntry(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	entry, err := h.rosterSvc.GetEntry(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, entry)
}

// ListChangeLogs 排班条目变更记录
// GET /api/v1/roster/entries/:id/logs
func (h *RosterHandler) ListChangeLogs(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	logs, err := h.rosterSvc.ListChangeLogs(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": logs})
}

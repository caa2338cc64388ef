package handler

import (
	"github.com/gin-gonic/gin"

	"guard-roster/internal/dto"
	"guard-roster/internal/service"
	"guard-roster/pkg/response"
)

// RoleHandler 轮班模式 HTTP 处理器
type RoleHandler struct {
	roleSvc service.RoleService
}

// NewRoleHandler 创建 RoleHandler
func NewRoleHandler(roleSvc service.RoleService) *RoleHandler {
	return &RoleHandler{roleSvc: roleSvc}
}

// ListRoles 轮班模式列表
// GET /api/v1/roles
func (h *RoleHandler) ListRoles(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.RoleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	roles, err := h.roleSvc.List(c.Request.Context(), tenantID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": roles})
}

// GetRole 轮班模式详情
// GET /api/v1/roles/:id
func (h *RoleHandler) GetRole(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	role, err := h.roleSvc.GetByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, role)
}

// CreateRole 创建轮班模式
// POST /api/v1/roles
func (h *RoleHandler) CreateRole(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	role, err := h.roleSvc.Create(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.Created(c, role)
}

// UpdateRole 修改轮班模式（已生成的排班不受影响）
// PUT /api/v1/roles/:id
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	role, err := h.roleSvc.Update(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, role)
}

// DeactivateRole 停用轮班模式
// DELETE /api/v1/roles/:id
func (h *RoleHandler) DeactivateRole(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	if err := h.roleSvc.Deactivate(c.Request.Context(), tenantID, c.Param("id"), callerID); err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, nil)
}

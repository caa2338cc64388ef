package handler

import (
	"github.com/gin-gonic/gin"

	"guard-roster/internal/dto"
	"guard-roster/internal/service"
	"guard-roster/pkg/response"
)

// PostHandler 岗位登记 HTTP 处理器
type PostHandler struct {
	postSvc service.PostService
}

// NewPostHandler 创建 PostHandler
func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{postSvc: postSvc}
}

// CreatePosts 按席位数批量创建岗位（幂等）
// POST /api/v1/posts/batch
func (h *PostHandler) CreatePosts(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreatePostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.postSvc.CreatePosts(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.Created(c, result)
}

// ListPosts 安装点岗位列表
// GET /api/v1/posts?installation_id=
func (h *PostHandler) ListPosts(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.PostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	posts, err := h.postSvc.List(c.Request.Context(), tenantID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": posts})
}

// GetPost 岗位详情
// GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	post, err := h.postSvc.GetByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, post)
}

// ListPendingCoverage 待补位岗位
// GET /api/v1/posts/pending?installation_id=
func (h *PostHandler) ListPendingCoverage(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.InstallationQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	posts, err := h.postSvc.ListPendingCoverage(c.Request.Context(), tenantID, req.InstallationID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": posts})
}

// StaffingSummary 安装点编制投影
// GET /api/v1/posts/staffing?installation_id=
func (h *PostHandler) StaffingSummary(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.InstallationQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	summary, err := h.postSvc.StaffingSummary(c.Request.Context(), tenantID, req.InstallationID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, summary)
}

// AssignGuard 为岗位分配保安
// PUT /api/v1/posts/:id/guard
func (h *PostHandler) AssignGuard(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.AssignGuardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	post, err := h.postSvc.AssignGuard(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, post)
}

// UnassignGuard 清空岗位保安，岗位进入待补位
// DELETE /api/v1/posts/:id/guard
func (h *PostHandler) UnassignGuard(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	post, err := h.postSvc.UnassignGuard(c.Request.Context(), tenantID, c.Param("id"), callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, post)
}

// SetCycleOffset 调整岗位在轮班周期中的相位
// PUT /api/v1/posts/:id/cycle-offset
func (h *PostHandler) SetCycleOffset(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SetCycleOffsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	post, err := h.postSvc.SetCycleOffset(c.Request.Context(), tenantID, c.Param("id"), &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, post)
}

// DeactivatePosts 停用某安装点某角色的全部岗位
// POST /api/v1/posts/deactivate
func (h *PostHandler) DeactivatePosts(c *gin.Context) {
	tenantID, callerID, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.DeactivatePostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.postSvc.DeactivatePosts(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

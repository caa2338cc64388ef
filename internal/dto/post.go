package dto

// ── 岗位登记 DTO ──

// CreatePostsRequest 按席位数创建岗位请求
type CreatePostsRequest struct {
	InstallationID string `json:"installation_id" binding:"required,uuid"`
	RoleID         string `json:"role_id"         binding:"required,uuid"`
	Count          int    `json:"count"           binding:"required,min=1,max=500"`
}

// CreatePostsResponse 创建岗位结果
type CreatePostsResponse struct {
	Created     int            `json:"created"`
	Reactivated int            `json:"reactivated"`
	Posts       []PostResponse `json:"posts"`
}

// AssignGuardRequest 分配保安请求
type AssignGuardRequest struct {
	GuardID string `json:"guard_id" binding:"required,uuid"`
}

// SetCycleOffsetRequest 设置岗位周期偏移请求
type SetCycleOffsetRequest struct {
	CycleOffset int `json:"cycle_offset" binding:"min=0,max=365"`
}

// DeactivatePostsRequest 停用某安装点某角色全部岗位请求
type DeactivatePostsRequest struct {
	InstallationID string `json:"installation_id" binding:"required,uuid"`
	RoleID         string `json:"role_id"         binding:"required,uuid"`
}

// DeactivatePostsResponse 停用结果
type DeactivatePostsResponse struct {
	Deactivated int `json:"deactivated"`
}

// PostListRequest 岗位列表查询参数
type PostListRequest struct {
	InstallationID  string `form:"installation_id"  binding:"required,uuid"`
	RoleID          string `form:"role_id"          binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"include_inactive"`
}

// InstallationQuery 仅按安装点查询
type InstallationQuery struct {
	InstallationID string `form:"installation_id" binding:"required,uuid"`
}

// PostResponse 岗位响应
type PostResponse struct {
	ID                string  `json:"id"`
	InstallationID    string  `json:"installation_id"`
	RoleID            string  `json:"role_id"`
	RoleName          string  `json:"role_name,omitempty"`
	GuardID           *string `json:"guard_id"`
	Sequence          int     `json:"sequence"`
	Name              string  `json:"name"`
	IsPendingCoverage bool    `json:"is_pending_coverage"`
	CycleOffset       int     `json:"cycle_offset"`
	IsActive          bool    `json:"is_active"`
	Version           int     `json:"version"`
}

// StaffingLine 某角色的席位统计
type StaffingLine struct {
	RoleID          string `json:"role_id"`
	RoleName        string `json:"role_name"`
	Configured      int    `json:"configured"`
	Assigned        int    `json:"assigned"`
	PendingCoverage int    `json:"pending_coverage"`
}

// StaffingSummaryResponse 安装点编制投影（由岗位实时推导，不落库）
type StaffingSummaryResponse struct {
	InstallationID  string         `json:"installation_id"`
	Lines           []StaffingLine `json:"lines"`
	Configured      int            `json:"configured"`
	Assigned        int            `json:"assigned"`
	PendingCoverage int            `json:"pending_coverage"`
}

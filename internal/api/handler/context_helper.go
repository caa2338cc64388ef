package handler

import (
	"github.com/gin-gonic/gin"

	"guard-roster/pkg/response"
)

// mustGetString 从 Gin 上下文中提取 JWT 中间件注入的字符串字段
// 缺失时写入 401 响应，调用方应在 ok=false 时直接 return
func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetUserID 从 Gin 上下文中安全提取 user_id（操作人）。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetTenantID 从 Gin 上下文中安全提取 tenant_id。
// 所有读写都以此为租户边界。
func MustGetTenantID(c *gin.Context) (string, bool) {
	return mustGetString(c, "tenant_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// mustGetCaller 同时提取租户与操作人
func mustGetCaller(c *gin.Context) (tenantID, userID string, ok bool) {
	if tenantID, ok = MustGetTenantID(c); !ok {
		return "", "", false
	}
	if userID, ok = MustGetUserID(c); !ok {
		return "", "", false
	}
	return tenantID, userID, true
}

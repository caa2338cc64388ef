package handler

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guard-roster/internal/dto"
	pkgerrors "guard-roster/pkg/errors"
	"guard-roster/pkg/response"
)

// ── 业务错误码 ──

const (
	codeValidation        = 10001
	codeNotFound          = 20001
	codeConflict          = 20002
	codeInvalidTransition = 20003
	codeAlreadyFinalized  = 20004
)

// handleEngineError 将引擎错误映射为 HTTP 响应，details 携带实体与不变量
// ErrAlreadyFinalized 包裹 ErrInvalidTransition，必须先于后者判断
func handleEngineError(c *gin.Context, err error) {
	details := pkgerrors.Details(err)
	var ee *pkgerrors.EngineError
	msg := ""
	if errors.As(err, &ee) {
		msg = ee.Message
	}

	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, codeNotFound, orDefault(msg, "资源不存在"), details)
	case errors.Is(err, pkgerrors.ErrAlreadyFinalized):
		response.Conflict(c, codeAlreadyFinalized, orDefault(msg, "记录已终结"), details)
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, codeConflict, orDefault(msg, "违反唯一性约束"), details)
	case errors.Is(err, pkgerrors.ErrInvalidTransition):
		response.UnprocessableEntity(c, codeInvalidTransition, orDefault(msg, "当前状态不允许该操作"), details)
	case errors.Is(err, pkgerrors.ErrValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, orDefault(msg, "参数校验失败"), details)
	default:
		zap.L().Error("未分类的服务错误",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}

// handleBindError 参数绑定失败：校验错误按 字段=标签 输出 details
func handleBindError(c *gin.Context, err error) {
	fields := dto.ValidationDetails(err)
	if len(fields) == 0 {
		response.BadRequest(c, codeValidation, "参数校验失败")
		return
	}
	parts := make([]string, 0, len(fields))
	for field, tag := range fields {
		parts = append(parts, field+"="+tag)
	}
	sort.Strings(parts)
	response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, "参数校验失败", strings.Join(parts, "; "))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

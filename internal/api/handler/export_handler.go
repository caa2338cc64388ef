package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"guard-roster/internal/dto"
	"guard-roster/internal/service"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRoster 导出安装点月度排班表
// GET /api/v1/export/roster.xlsx?installation_id=&year=&month=
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.ExportRosterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	buf, filename, err := h.exportSvc.RosterWorkbook(c.Request.Context(), tenantID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportGuardCalendar 导出保安值班日历
// GET /api/v1/export/guards/:id/roster.ics?from=&to=
func (h *ExportHandler) ExportGuardCalendar(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	var req dto.GuardCalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleBindError(c, err)
		return
	}

	guardID := c.Param("id")
	cal, err := h.exportSvc.GuardCalendar(c.Request.Context(), tenantID, guardID, &req)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	filename := fmt.Sprintf("guard_%s_%s_%s.ics", guardID, req.From, req.To)
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, icsContentType, []byte(cal))
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
)

// ErrExportGenerateFail 生成导出文件失败
var ErrExportGenerateFail = errors.New("生成导出文件失败")

// ExportService 导出业务接口（只读）
//
//   - RosterWorkbook：安装点某月排班 Excel，岗位为行、日期为列，另附当月加班台账 Sheet
//   - GuardCalendar：保安值班日 iCalendar，包含本人排定及作为替班/补位的日期
type ExportService interface {
	RosterWorkbook(ctx context.Context, tenantID string, req *dto.ExportRosterRequest) (*bytes.Buffer, string, error)
	GuardCalendar(ctx context.Context, tenantID, guardID string, req *dto.GuardCalendarRequest) (string, error)
}

type exportService struct {
	settings Settings
	repo     *repository.Repository
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(settings Settings, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{settings: settings, repo: repo, logger: logger}
}

var decimalSixty = decimal.NewFromInt(60)

// displayCodes 单元格中的展示状态缩写
var displayCodes = map[model.DisplayState]string{
	model.DisplayPendingCoverage: "PPC",
	model.DisplayPlanned:         "P",
	model.DisplayRest:            "-",
	model.DisplayWorked:          "T",
	model.DisplayAbsent:          "F",
	model.DisplayUncovered:       "SC",
	model.DisplayReplaced:        "R",
	model.DisplayCoveredExtra:    "EX",
	model.DisplayInconsistent:    "?",
}

// ═══════════════════════════════════════════════════════════
// RosterWorkbook — 安装点月度排班导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// Sheet "排班"：| 岗位 | 保安 | 1 | 2 | ... | N |
// Sheet "加班"：当月该安装点的加班记录

func (s *exportService) RosterWorkbook(ctx context.Context, tenantID string, req *dto.ExportRosterRequest) (*bytes.Buffer, string, error) {
	if err := validateMonth("installation", req.InstallationID, req.Year, req.Month); err != nil {
		return nil, "", err
	}

	// 1. 查询安装点与当月条目
	inst, err := s.repo.Directory.GetInstallation(ctx, tenantID, req.InstallationID)
	if err != nil {
		return nil, "", fail(s.logger, "查询安装点失败", err, "installation", req.InstallationID)
	}
	days := model.DaysIn(req.Year, time.Month(req.Month))
	from := model.CivilDate(req.Year, time.Month(req.Month), 1)
	to := model.CivilDate(req.Year, time.Month(req.Month), days)

	entries, err := s.repo.Roster.ListByInstallationRange(ctx, tenantID, req.InstallationID, from, to)
	if err != nil {
		s.logger.Error("查询安装点排班失败", zap.Error(err))
		return nil, "", err
	}
	extras, _, err := s.repo.ExtraShift.List(ctx, repository.ExtraShiftFilter{
		TenantID:       tenantID,
		InstallationID: req.InstallationID,
		From:           &from,
		To:             &to,
		Limit:          10000,
	})
	if err != nil {
		s.logger.Error("查询加班台账失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 按岗位分组
	type postRow struct {
		postID   string
		name     string
		sequence int
		guardID  string
		cells    map[int]string
	}
	rows := make(map[string]*postRow)
	for i := range entries {
		e := &entries[i]
		row, ok := rows[e.PostID]
		if !ok {
			row = &postRow{postID: e.PostID, name: e.PostID, cells: make(map[int]string)}
			if e.Post != nil {
				row.name = e.Post.Name
				row.sequence = e.Post.Sequence
				if g, filled := e.Post.Assignment().GuardID(); filled {
					row.guardID = g
				}
			}
			rows[e.PostID] = row
		}
		row.cells[e.Day] = displayCodes[e.DisplayState()]
	}
	ordered := make([]*postRow, 0, len(rows))
	for _, r := range rows {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].sequence != ordered[j].sequence {
			return ordered[i].sequence < ordered[j].sequence
		}
		return ordered[i].postID < ordered[j].postID
	})

	guardNames := newGuardNameCache(s.repo.Directory, tenantID)

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheet := "排班"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s — %04d-%02d", inst.Name, req.Year, req.Month))
	f.MergeCell(sheet, "A1", cell(colName(1+days), 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, colName(2), colName(1+days), 5)

	f.SetCellValue(sheet, "A2", "岗位")
	f.SetCellValue(sheet, "B2", "保安")
	for d := 1; d <= days; d++ {
		f.SetCellValue(sheet, cell(colName(1+d), 2), d)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(1+days), 2), headerStyle)

	for i, r := range ordered {
		rowNum := 3 + i
		f.SetCellValue(sheet, cell("A", rowNum), r.name)
		guard := "待补位"
		if r.guardID != "" {
			guard = guardNames.name(ctx, r.guardID)
		}
		f.SetCellValue(sheet, cell("B", rowNum), guard)
		for d := 1; d <= days; d++ {
			f.SetCellValue(sheet, cell(colName(1+d), rowNum), r.cells[d])
		}
	}

	// 4. 加班 Sheet
	extraSheet := "加班"
	f.NewSheet(extraSheet)
	headers := []string{"日期", "保安", "类型", "金额", "支付状态", "批次号", "已脱钩"}
	for i, h := range headers {
		f.SetCellValue(extraSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(extraSheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)
	f.SetColWidth(extraSheet, "A", "G", 16)
	for i := range extras {
		x := &extras[i]
		rowNum := 2 + i
		batch := ""
		if x.PaymentBatchID != nil {
			batch = *x.PaymentBatchID
		}
		f.SetCellValue(extraSheet, cell("A", rowNum), x.DutyDate.Format(model.DateLayout))
		f.SetCellValue(extraSheet, cell("B", rowNum), guardNames.name(ctx, x.GuardID))
		f.SetCellValue(extraSheet, cell("C", rowNum), string(x.Kind))
		f.SetCellValue(extraSheet, cell("D", rowNum), x.Amount.StringFixed(2))
		f.SetCellValue(extraSheet, cell("E", rowNum), string(x.PaymentStatus))
		f.SetCellValue(extraSheet, cell("F", rowNum), batch)
		f.SetCellValue(extraSheet, cell("G", rowNum), x.Preserved)
	}

	// 5. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("roster_%s_%04d-%02d.xlsx", inst.InstallationID, req.Year, req.Month)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// GuardCalendar — 保安值班日导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) GuardCalendar(ctx context.Context, tenantID, guardID string, req *dto.GuardCalendarRequest) (string, error) {
	from, to, err := parseRange("guard", guardID, req.From, req.To)
	if err != nil {
		return "", err
	}
	guard, err := s.repo.Directory.GetGuard(ctx, tenantID, guardID)
	if err != nil {
		return "", fail(s.logger, "查询保安失败", err, "guard", guardID)
	}

	entries, err := s.repo.Roster.ListByGuardRange(ctx, tenantID, guardID, from, to)
	if err != nil {
		s.logger.Error("查询保安排班失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//guard-roster//duty calendar//ZH")
	cal.SetXWRCalName(guard.FullName + " 值班")

	stamp := s.settings.now().UTC()
	for i := range entries {
		e := &entries[i]
		summary, ok := dutySummary(e, guardID)
		if !ok {
			continue
		}
		event := cal.AddEvent(e.EntryID + "@guard-roster")
		event.SetDtStampTime(stamp)
		event.SetSummary(summary)
		event.SetStatus(ics.ObjectStatusConfirmed)

		start, end, timed := s.shiftWindow(e)
		if timed {
			event.SetStartAt(start)
			event.SetEndAt(end)
		} else {
			event.SetAllDayStartAt(e.DutyDate)
		}
		if e.Post != nil {
			event.SetLocation(e.Post.Name)
		}
	}

	return cal.Serialize(), nil
}

// dutySummary 判断条目是否为该保安的值班日
func dutySummary(e *model.RosterEntry, guardID string) (string, bool) {
	switch e.State {
	case model.StatePlanned, model.StateWorked:
		if e.GuardID != nil && *e.GuardID == guardID {
			return "值班", true
		}
	case model.StateReplaced:
		if e.Meta(model.MetaSubstituteGuardID) == guardID {
			return "替班", true
		}
	case model.StateExtraAssigned:
		if e.Meta(model.MetaCoverageGuardID) == guardID {
			return "补位加班", true
		}
	}
	return "", false
}

// shiftWindow 班次起止时间（按排班时区），跨午夜时结束于次日
func (s *exportService) shiftWindow(e *model.RosterEntry) (time.Time, time.Time, bool) {
	if e.Post == nil || e.Post.Role == nil {
		return time.Time{}, time.Time{}, false
	}
	role := e.Post.Role
	clock, err := time.Parse("15:04", model.ClockHHMM(role.StartTime))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	loc := s.settings.Location
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(e.DutyDate.Year(), e.DutyDate.Month(), e.DutyDate.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	minutes := role.ShiftHours.Mul(decimalSixty).IntPart()
	return start, start.Add(time.Duration(minutes) * time.Minute), true
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// guardNameCache 导出时按需查询保安姓名
type guardNameCache struct {
	dir      repository.DirectoryRepository
	tenantID string
	names    map[string]string
}

func newGuardNameCache(dir repository.DirectoryRepository, tenantID string) *guardNameCache {
	return &guardNameCache{dir: dir, tenantID: tenantID, names: make(map[string]string)}
}

func (c *guardNameCache) name(ctx context.Context, guardID string) string {
	if n, ok := c.names[guardID]; ok {
		return n
	}
	n := guardID
	if g, err := c.dir.GetGuard(ctx, c.tenantID, guardID); err == nil && g.FullName != "" {
		n = g.FullName
	}
	c.names[guardID] = n
	return n
}

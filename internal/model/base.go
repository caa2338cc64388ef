package model

import "time"

// BaseModel 通用审计字段（所有引擎模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// VersionedModel 支持乐观锁的审计模型
// 引擎实体一律不物理删除，故不携带 DeletedAt
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// Touch 记录操作人
func (m *BaseModel) Touch(actorID string) {
	if actorID == "" {
		return
	}
	m.UpdatedBy = &actorID
	if m.CreatedBy == nil {
		m.CreatedBy = &actorID
	}
}

// ── 日期工具 ──

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// CivilDate 将年月日规整为 UTC 零点，排班日期一律按此比较
func CivilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateDay 取某时刻在指定时区下的日历日
func TruncateDay(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return CivilDate(t.Year(), t.Month(), t.Day())
}

// DaysIn 返回某月天数
func DaysIn(year int, month time.Month) int {
	return CivilDate(year, month+1, 0).Day()
}

// DaysBetween 返回 b - a 的整日数（可为负）
func DaysBetween(a, b time.Time) int {
	a0 := CivilDate(a.Year(), a.Month(), a.Day())
	b0 := CivilDate(b.Year(), b.Month(), b.Day())
	return int(b0.Sub(a0) / (24 * time.Hour))
}

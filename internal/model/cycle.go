package model

import "time"

// CycleState 计算某日在轮班周期中的初始状态
// 位置 = (距锚定日天数 + 岗位偏移) mod 周期长度；位置 < 上班天数为 planned，否则 rest
func CycleState(anchor time.Time, offset, workDays, restDays int, date time.Time) RosterState {
	length := workDays + restDays
	if length <= 0 {
		return StatePlanned
	}
	pos := (DaysBetween(anchor, date) + offset) % length
	if pos < 0 {
		pos += length
	}
	if pos < workDays {
		return StatePlanned
	}
	return StateRest
}

// InitialState 生成时的初始状态：空缺岗位一律 planned（待补位）
func InitialState(anchor time.Time, post *OperationalPost, role *Role, date time.Time) RosterState {
	if !post.Assignment().IsFilled() || role == nil {
		return StatePlanned
	}
	return CycleState(anchor, post.CycleOffset, role.WorkDays, role.RestDays, date)
}

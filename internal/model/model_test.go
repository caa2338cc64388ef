package model

import (
	"testing"
	"time"

	"gorm.io/datatypes"
)

var anchor = CivilDate(2024, time.January, 1)

func TestCycleState_FourOnFourOff(t *testing.T) {
	// 锚定日为周期第 0 天：1-4 日上班，5-8 日休息
	want := []RosterState{
		StatePlanned, StatePlanned, StatePlanned, StatePlanned,
		StateRest, StateRest, StateRest, StateRest,
		StatePlanned,
	}
	for i, w := range want {
		d := anchor.AddDate(0, 0, i)
		if got := CycleState(anchor, 0, 4, 4, d); got != w {
			t.Errorf("第 %d 天期望 %s，实际 %s", i, w, got)
		}
	}
}

func TestCycleState_BeforeAnchorAndOffset(t *testing.T) {
	// 锚定日前一天位于周期末尾（休息）
	if got := CycleState(anchor, 0, 4, 4, anchor.AddDate(0, 0, -1)); got != StateRest {
		t.Errorf("锚定日前一天期望 rest，实际 %s", got)
	}
	// 偏移 4 天后锚定日即为休息
	if got := CycleState(anchor, 4, 4, 4, anchor); got != StateRest {
		t.Errorf("偏移 4 后锚定日期望 rest，实际 %s", got)
	}
	// 跨年仍可复现
	d := CivilDate(2025, time.March, 15)
	if CycleState(anchor, 0, 4, 4, d) != CycleState(anchor, 0, 4, 4, d) {
		t.Error("同一输入结果应一致")
	}
}

func TestInitialState_UnfilledPostAlwaysPlanned(t *testing.T) {
	post := &OperationalPost{}
	role := &Role{WorkDays: 4, RestDays: 4}
	for i := 0; i < 8; i++ {
		if got := InitialState(anchor, post, role, anchor.AddDate(0, 0, i)); got != StatePlanned {
			t.Fatalf("空缺岗位第 %d 天期望 planned，实际 %s", i, got)
		}
	}
}

func TestPostAssignment_Invariant(t *testing.T) {
	post := &OperationalPost{IsPendingCoverage: true}
	if !post.Consistent() || post.Assignment().IsFilled() {
		t.Fatal("新岗位应为空缺且一致")
	}

	post.AssignTo("guard-1")
	if post.IsPendingCoverage || !post.Consistent() {
		t.Error("分配后应清除待补位")
	}
	if id, ok := post.Assignment().GuardID(); !ok || id != "guard-1" {
		t.Errorf("期望 guard-1，实际 %q", id)
	}

	post.Vacate()
	if !post.IsPendingCoverage || post.GuardID != nil || !post.Consistent() {
		t.Error("撤销后应回到待补位")
	}

	post.AssignTo("")
	if !post.IsPendingCoverage || !post.Consistent() {
		t.Error("空 ID 分配应等同空缺")
	}
}

func TestDeriveDisplayState(t *testing.T) {
	cases := []struct {
		state                       RosterState
		guard, substitute, coverage bool
		want                        DisplayState
	}{
		{StatePlanned, false, false, false, DisplayPendingCoverage},
		{StatePlanned, true, false, false, DisplayPlanned},
		{StateRest, true, false, false, DisplayRest},
		{StateWorked, true, false, false, DisplayWorked},
		{StateWorked, false, false, false, DisplayInconsistent},
		{StateAbsentUncovered, true, false, false, DisplayAbsent},
		{StateAbsentUncovered, false, false, false, DisplayUncovered},
		{StateReplaced, true, true, false, DisplayReplaced},
		{StateReplaced, true, false, false, DisplayInconsistent},
		{StateExtraAssigned, false, false, true, DisplayCoveredExtra},
		{StateExtraAssigned, false, false, false, DisplayInconsistent},
	}
	for _, c := range cases {
		if got := DeriveDisplayState(c.state, c.guard, c.substitute, c.coverage); got != c.want {
			t.Errorf("%s guard=%v sub=%v cov=%v: 期望 %s，实际 %s", c.state, c.guard, c.substitute, c.coverage, c.want, got)
		}
	}
}

func TestRosterEntry_OverlayKeyIgnored(t *testing.T) {
	g := "guard-1"
	e := &RosterEntry{
		GuardID:  &g,
		State:    StateWorked,
		Metadata: datatypes.JSONMap{"estado_ui": "extra"},
	}
	if e.DisplayState() != DisplayWorked {
		t.Errorf("覆盖键不应影响展示状态，实际 %s", e.DisplayState())
	}
	issues := e.ConsistencyIssues()
	if len(issues) != 1 || issues[0] != "ignored_overlay_key:estado_ui" {
		t.Errorf("应报告被忽略的覆盖键，实际 %v", issues)
	}
}

func TestRosterEntry_ClearTransitionMeta(t *testing.T) {
	e := &RosterEntry{Metadata: datatypes.JSONMap{
		MetaSubstituteGuardID: "g-2",
		MetaMotive:            "sick leave",
		MetaExtraShiftID:      "x-1",
		MetaLastActorID:       "op-1",
		"note":                "keep me",
	}}
	e.ClearTransitionMeta()
	if e.HasTransitionMeta() {
		t.Error("迁移键应被清除")
	}
	if e.Meta(MetaLastActorID) != "op-1" || e.Meta("note") != "keep me" {
		t.Error("审计键与自由键应保留")
	}
}

func TestRole_CycleAndMidnight(t *testing.T) {
	r := &Role{WorkDays: 1, RestDays: 0}
	if r.ValidCycle() {
		t.Error("周期长度 1 不合法")
	}
	r = &Role{WorkDays: 4, RestDays: 4, StartTime: "20:00:00", EndTime: "08:00:00"}
	if !r.ValidCycle() || !r.CrossesMidnight() {
		t.Error("4x4 夜班应合法且跨午夜")
	}
	r.StartTime, r.EndTime = "08:00", "20:00"
	if r.CrossesMidnight() {
		t.Error("日班不应跨午夜")
	}
}

func TestDaysIn(t *testing.T) {
	if DaysIn(2024, time.February) != 29 || DaysIn(2025, time.February) != 28 || DaysIn(2025, time.December) != 31 {
		t.Error("月份天数计算错误")
	}
}

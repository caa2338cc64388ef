package model

import (
	"time"

	"gorm.io/datatypes"
)

// RosterState 排班日状态
type RosterState string

const (
	StatePlanned         RosterState = "planned"
	StateRest            RosterState = "rest"
	StateWorked          RosterState = "worked"
	StateAbsentUncovered RosterState = "absent_uncovered"
	StateReplaced        RosterState = "replaced"
	StateExtraAssigned   RosterState = "extra_assigned"
)

// ── metadata 键 ──

const (
	MetaSubstituteGuardID = "substitute_guard_id"
	MetaCoverageGuardID   = "coverage_guard_id"
	MetaMotive            = "motive"
	MetaAbsenceReason     = "absence_reason"
	MetaExtraShiftID      = "extra_shift_id"
	MetaIsExtra           = "is_extra"

	MetaLastActorID  = "last_actor_id"
	MetaLastAction   = "last_action"
	MetaLastActionAt = "last_action_at"
)

// TransitionMetaKeys 由状态迁移写入、由撤销清除的键
var TransitionMetaKeys = []string{
	MetaSubstituteGuardID,
	MetaCoverageGuardID,
	MetaMotive,
	MetaAbsenceReason,
	MetaExtraShiftID,
	MetaIsExtra,
}

// legacyOverlayKeys 历史上覆盖展示状态的键，读取时一律忽略
var legacyOverlayKeys = []string{"estado_ui", "display_state", "ui_state"}

// RosterEntry 月度排班表 — 对应 roster_entries，每个 (岗位, 日) 一条
// GuardID 为空表示当日岗位空缺（待补位），不再使用岗位 ID 充当哨兵。
type RosterEntry struct {
	EntryID        string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	TenantID       string            `gorm:"type:uuid;not null"                             json:"tenant_id"`
	PostID         string            `gorm:"type:uuid;not null"                             json:"post_id"`
	InstallationID string            `gorm:"type:uuid;not null"                             json:"installation_id"`
	GuardID        *string           `gorm:"type:uuid"                                      json:"guard_id,omitempty"`
	Year           int               `gorm:"type:smallint;not null"                         json:"year"`
	Month          int               `gorm:"type:smallint;not null"                         json:"month"`
	Day            int               `gorm:"type:smallint;not null"                         json:"day"`
	DutyDate       time.Time         `gorm:"type:date;not null"                             json:"duty_date"`
	State          RosterState       `gorm:"type:varchar(20);not null;default:'planned'"    json:"state"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"               json:"metadata"`
	VersionedModel

	// 关联
	Post *OperationalPost `gorm:"foreignKey:PostID;references:PostID" json:"post,omitempty"`
}

// TableName 指定表名
func (RosterEntry) TableName() string { return "roster_entries" }

// HasGuard 当日是否有排定保安
func (e *RosterEntry) HasGuard() bool { return e.GuardID != nil && *e.GuardID != "" }

// Meta 读取字符串型 metadata
func (e *RosterEntry) Meta(key string) string {
	if e.Metadata == nil {
		return ""
	}
	if v, ok := e.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// SetMeta 写入 metadata
func (e *RosterEntry) SetMeta(key string, value interface{}) {
	if e.Metadata == nil {
		e.Metadata = datatypes.JSONMap{}
	}
	e.Metadata[key] = value
}

// ClearTransitionMeta 清除迁移产生的键，保留审计键与其他自由键
func (e *RosterEntry) ClearTransitionMeta() {
	for _, k := range TransitionMetaKeys {
		delete(e.Metadata, k)
	}
}

// HasTransitionMeta 是否残留迁移键
func (e *RosterEntry) HasTransitionMeta() bool {
	for _, k := range TransitionMetaKeys {
		if _, ok := e.Metadata[k]; ok {
			return true
		}
	}
	return false
}

// Untouched 仍为生成时的初始状态（可被岗位分配变更同步覆盖）
func (e *RosterEntry) Untouched() bool {
	return (e.State == StatePlanned || e.State == StateRest) && !e.HasTransitionMeta()
}

// RecordAction 写入审计键
func (e *RosterEntry) RecordAction(action, actorID string, at time.Time) {
	e.SetMeta(MetaLastAction, action)
	e.SetMeta(MetaLastActorID, actorID)
	e.SetMeta(MetaLastActionAt, at.UTC().Format(time.RFC3339))
}

// ── 展示状态：由 (state, 是否有保安, 替班/补位引用) 纯函数推导 ──

// DisplayState 对外展示的派生状态，不落库
type DisplayState string

const (
	DisplayPendingCoverage DisplayState = "pending_coverage"
	DisplayPlanned         DisplayState = "planned"
	DisplayRest            DisplayState = "rest"
	DisplayWorked          DisplayState = "worked"
	DisplayAbsent          DisplayState = "absent"
	DisplayUncovered       DisplayState = "uncovered"
	DisplayReplaced        DisplayState = "replaced"
	DisplayCoveredExtra    DisplayState = "covered_extra"
	DisplayInconsistent    DisplayState = "inconsistent"
)

// DeriveDisplayState 推导展示状态
func DeriveDisplayState(state RosterState, hasGuard, hasSubstitute, hasCoverage bool) DisplayState {
	switch state {
	case StatePlanned:
		if !hasGuard {
			return DisplayPendingCoverage
		}
		return DisplayPlanned
	case StateRest:
		return DisplayRest
	case StateWorked:
		if !hasGuard {
			return DisplayInconsistent
		}
		return DisplayWorked
	case StateAbsentUncovered:
		if !hasGuard {
			return DisplayUncovered
		}
		return DisplayAbsent
	case StateReplaced:
		if !hasSubstitute {
			return DisplayInconsistent
		}
		return DisplayReplaced
	case StateExtraAssigned:
		if !hasCoverage {
			return DisplayInconsistent
		}
		return DisplayCoveredExtra
	}
	return DisplayInconsistent
}

// DisplayState 当前条目的展示状态
func (e *RosterEntry) DisplayState() DisplayState {
	return DeriveDisplayState(
		e.State,
		e.HasGuard(),
		e.Meta(MetaSubstituteGuardID) != "",
		e.Meta(MetaCoverageGuardID) != "",
	)
}

// ConsistencyIssues 读取时的一致性检查，返回发现的问题（空表示一致）
func (e *RosterEntry) ConsistencyIssues() []string {
	var issues []string
	for _, k := range legacyOverlayKeys {
		if _, ok := e.Metadata[k]; ok {
			issues = append(issues, "ignored_overlay_key:"+k)
		}
	}
	if e.DisplayState() == DisplayInconsistent {
		issues = append(issues, "state_metadata_mismatch:"+string(e.State))
	}
	if (e.State == StatePlanned || e.State == StateRest) && e.HasTransitionMeta() {
		issues = append(issues, "residual_transition_metadata")
	}
	return issues
}

package model

import "fmt"

// OperationalPost 岗位表 — 对应 operational_posts
// 一个岗位 = 某安装点的一个席位，是排班的唯一事实来源。
// GuardID 与 IsPendingCoverage 只能通过 AssignTo / Vacate 成对修改（库内另有 CHECK 约束）。
type OperationalPost struct {
	PostID            string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"post_id"`
	TenantID          string  `gorm:"type:uuid;not null"                             json:"tenant_id"`
	InstallationID    string  `gorm:"type:uuid;not null"                             json:"installation_id"`
	RoleID            string  `gorm:"type:uuid;not null"                             json:"role_id"`
	GuardID           *string `gorm:"type:uuid"                                      json:"guard_id,omitempty"`
	Sequence          int     `gorm:"not null"                                       json:"sequence"`
	Name              string  `gorm:"type:varchar(100);not null"                     json:"name"`
	IsPendingCoverage bool    `gorm:"not null;default:true"                          json:"is_pending_coverage"`
	CycleOffset       int     `gorm:"not null;default:0"                             json:"cycle_offset"`
	IsActive          bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Role *Role `gorm:"foreignKey:RoleID;references:RoleID" json:"role,omitempty"`
}

// TableName 指定表名
func (OperationalPost) TableName() string { return "operational_posts" }

// PostName 岗位序号显示名
func PostName(sequence int) string {
	return fmt.Sprintf("Post #%d", sequence)
}

// ── 岗位分配：Unfilled | AssignedTo(guardID) ──

// Assignment 岗位分配状态的标签变体，取代“保安 ID = 岗位 ID”的哨兵写法
type Assignment struct {
	guardID string
}

// Unfilled 空缺
func Unfilled() Assignment { return Assignment{} }

// AssignedTo 已分配给某保安
func AssignedTo(guardID string) Assignment { return Assignment{guardID: guardID} }

// IsFilled 是否已分配
func (a Assignment) IsFilled() bool { return a.guardID != "" }

// GuardID 返回保安 ID；空缺时 ok=false
func (a Assignment) GuardID() (string, bool) { return a.guardID, a.guardID != "" }

// GuardRef 返回可写入数据库的可空引用
func (a Assignment) GuardRef() *string {
	if a.guardID == "" {
		return nil
	}
	id := a.guardID
	return &id
}

func (a Assignment) String() string {
	if a.guardID == "" {
		return "unfilled"
	}
	return "assigned:" + a.guardID
}

// Assignment 读取岗位当前分配
func (p *OperationalPost) Assignment() Assignment {
	if p.GuardID == nil || *p.GuardID == "" {
		return Unfilled()
	}
	return AssignedTo(*p.GuardID)
}

// AssignTo 分配保安并清除待补位标记
func (p *OperationalPost) AssignTo(guardID string) {
	p.GuardID = AssignedTo(guardID).GuardRef()
	p.IsPendingCoverage = p.GuardID == nil
}

// Vacate 撤销分配，岗位回到待补位
func (p *OperationalPost) Vacate() {
	p.GuardID = nil
	p.IsPendingCoverage = true
}

// Consistent 校验 guard == nil ⇔ pending
func (p *OperationalPost) Consistent() bool {
	return p.Assignment().IsFilled() != p.IsPendingCoverage
}

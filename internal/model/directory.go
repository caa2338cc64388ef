package model

// Installation 安装点（客户现场）— 对应 installations，由客户系统维护，引擎只读
type Installation struct {
	InstallationID string `gorm:"type:uuid;primaryKey" json:"installation_id"`
	TenantID       string `gorm:"type:uuid;not null"   json:"tenant_id"`
	Name           string `gorm:"type:varchar(200)"    json:"name"`
	IsActive       bool   `gorm:"not null"             json:"is_active"`
}

// TableName 指定表名
func (Installation) TableName() string { return "installations" }

// Guard 保安 — 对应 guards，由人员系统维护，引擎只读
type Guard struct {
	GuardID  string `gorm:"type:uuid;primaryKey" json:"guard_id"`
	TenantID string `gorm:"type:uuid;not null"   json:"tenant_id"`
	FullName string `gorm:"type:varchar(200)"    json:"full_name"`
	IsActive bool   `gorm:"not null"             json:"is_active"`
}

// TableName 指定表名
func (Guard) TableName() string { return "guards" }

package errors

import (
	"errors"
	"fmt"
)

// ── 存储层错误（Repository 返回，由 Service 翻译） ──

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicateKey 唯一约束冲突（PostgreSQL 23505）
var ErrDuplicateKey = errors.New("违反唯一约束")

// ── 引擎错误分类 ──

var (
	ErrNotFound          = errors.New("资源不存在")
	ErrConflict          = errors.New("违反唯一性约束")
	ErrInvalidTransition = errors.New("非法状态迁移")
	ErrValidation        = errors.New("参数校验失败")
)

// ErrAlreadyFinalized 已结算（已支付/已取消）记录的再次终结，属于 ErrInvalidTransition 的变体
var ErrAlreadyFinalized = fmt.Errorf("%w: 记录已终结", ErrInvalidTransition)

// EngineError 携带实体标识与被违反不变量的业务错误
// errors.Is 按 Kind 匹配，便于 Handler 统一映射 HTTP 状态码
type EngineError struct {
	Kind      error
	Entity    string
	ID        string
	Invariant string
	Message   string
}

func (e *EngineError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.ID != "" {
		return fmt.Sprintf("%s [%s=%s, invariant=%s]", msg, e.Entity, e.ID, e.Invariant)
	}
	return fmt.Sprintf("%s [%s, invariant=%s]", msg, e.Entity, e.Invariant)
}

func (e *EngineError) Unwrap() error { return e.Kind }

// NotFound 引用的实体不存在
func NotFound(entity, id string) error {
	return &EngineError{Kind: ErrNotFound, Entity: entity, ID: id, Invariant: "exists", Message: entity + " 不存在"}
}

// Conflict 违反唯一性不变量
func Conflict(entity, id, invariant, message string) error {
	return &EngineError{Kind: ErrConflict, Entity: entity, ID: id, Invariant: invariant, Message: message}
}

// InvalidTransition 当前状态下不允许的迁移
func InvalidTransition(entity, id, from, action string) error {
	return &EngineError{
		Kind:      ErrInvalidTransition,
		Entity:    entity,
		ID:        id,
		Invariant: "transition:" + from + "->" + action,
		Message:   fmt.Sprintf("状态 %s 不允许执行 %s", from, action),
	}
}

// AlreadyFinalized 对已终结记录执行终结操作
func AlreadyFinalized(entity, id, status string) error {
	return &EngineError{
		Kind:      ErrAlreadyFinalized,
		Entity:    entity,
		ID:        id,
		Invariant: "forward-only:" + status,
		Message:   fmt.Sprintf("记录已处于终结状态 %s", status),
	}
}

// Invalid 输入不合法，未执行任何写入
func Invalid(entity, id, invariant, message string) error {
	return &EngineError{Kind: ErrValidation, Entity: entity, ID: id, Invariant: invariant, Message: message}
}

// Details 提取错误中的不变量描述，供响应 details 字段使用
func Details(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		if ee.ID != "" {
			return fmt.Sprintf("%s=%s; invariant=%s", ee.Entity, ee.ID, ee.Invariant)
		}
		return fmt.Sprintf("%s; invariant=%s", ee.Entity, ee.Invariant)
	}
	return ""
}

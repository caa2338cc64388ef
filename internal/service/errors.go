package service

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	pkgerrors "guard-roster/pkg/errors"
)

// 唯一索引名 → 不变量名
var constraintInvariants = map[string]string{
	"uq_roles_tenant_name":           "role-name-unique",
	"uq_posts_installation_role_seq": "post-sequence-unique",
	"uq_posts_active_guard":          "one-active-post-per-guard",
	"uq_roster_post_day":             "one-entry-per-post-day",
	"uq_extra_guard_date_active":     "one-extra-shift-per-guard-date",
}

// translate 将存储层错误翻译为引擎错误；已是引擎错误的原样返回
func translate(err error, entity, id string) error {
	var ee *pkgerrors.EngineError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ee):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.NotFound(entity, id)
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		return pkgerrors.Conflict(entity, id, "optimistic-version", "记录已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrDuplicateKey):
		invariant := "unique"
		for name, inv := range constraintInvariants {
			if strings.Contains(err.Error(), name) {
				invariant = inv
				break
			}
		}
		return pkgerrors.Conflict(entity, id, invariant, "违反唯一性约束")
	}
	return err
}

func isEngineError(err error) bool {
	var ee *pkgerrors.EngineError
	return errors.As(err, &ee)
}

// fail 翻译错误；非业务错误记录为系统错误
func fail(logger *zap.Logger, msg string, err error, entity, id string) error {
	out := translate(err, entity, id)
	if !isEngineError(out) {
		logger.Error(msg, zap.String("entity", entity), zap.String("id", id), zap.Error(err))
	}
	return out
}

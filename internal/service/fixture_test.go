package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"guard-roster/internal/model"
	"guard-roster/internal/repository"
)

// ── 测试辅助 ──

const (
	testTenant = "tenant-1"
	testActor  = "actor-1"
	testInst   = "inst-1"
	testRole   = "role-4x4"

	guardA    = "guard-a" // 固定岗保安
	guardS    = "guard-s" // 替班保安
	guardC    = "guard-c" // 补位保安
	guardGone = "guard-gone"
)

var ctx = context.Background()

type fixture struct {
	roles    *mockRoleRepo
	posts    *mockPostRepo
	roster   *mockRosterRepo
	extras   *mockExtraShiftRepo
	logs     *mockChangeLogRepo
	dir      *mockDirectoryRepo
	repo     *repository.Repository
	settings Settings
	now      time.Time
}

// newFixture 锚定日 2025-03-01、4 上 4 休，当前时间早于三月
func newFixture() *fixture {
	f := &fixture{
		roles:  newMockRoleRepo(),
		extras: newMockExtraShiftRepo(),
		logs:   &mockChangeLogRepo{},
		dir:    newMockDirectoryRepo(),
	}
	f.posts = newMockPostRepo(f.roles)
	f.roster = newMockRosterRepo(f.posts)
	f.repo = &repository.Repository{
		Role:       f.roles,
		Post:       f.posts,
		Roster:     f.roster,
		ExtraShift: f.extras,
		ChangeLog:  f.logs,
		Directory:  f.dir,
	}
	f.now = time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)
	f.settings = Settings{
		Anchor:        model.CivilDate(2025, 3, 1),
		Location:      time.UTC,
		DefaultAmount: decimal.NewFromInt(25000),
		Now:           func() time.Time { return f.now },
	}

	f.dir.installations[testInst] = &model.Installation{InstallationID: testInst, TenantID: testTenant, Name: "东门园区", IsActive: true}
	f.dir.installations["inst-closed"] = &model.Installation{InstallationID: "inst-closed", TenantID: testTenant, Name: "旧仓库", IsActive: false}
	f.dir.guards[guardA] = &model.Guard{GuardID: guardA, TenantID: testTenant, FullName: "张三", IsActive: true}
	f.dir.guards[guardS] = &model.Guard{GuardID: guardS, TenantID: testTenant, FullName: "李四", IsActive: true}
	f.dir.guards[guardC] = &model.Guard{GuardID: guardC, TenantID: testTenant, FullName: "王五", IsActive: true}
	f.dir.guards[guardGone] = &model.Guard{GuardID: guardGone, TenantID: testTenant, FullName: "赵六", IsActive: false}

	role := &model.Role{
		RoleID:     testRole,
		TenantID:   testTenant,
		Name:       "4x4 日班",
		WorkDays:   4,
		RestDays:   4,
		ShiftHours: decimal.NewFromInt(12),
		StartTime:  "08:00",
		EndTime:    "20:00",
		IsActive:   true,
	}
	_ = f.roles.Create(ctx, role)
	return f
}

func (f *fixture) service() *Service {
	return NewService(f.settings, f.repo, zap.NewNop())
}

// seedPost 直接写入一个在用岗位，guardID 为空表示空缺
func (f *fixture) seedPost(t *testing.T, guardID string) string {
	t.Helper()
	p := model.OperationalPost{
		TenantID:       testTenant,
		InstallationID: testInst,
		RoleID:         testRole,
		Sequence:       len(f.posts.posts) + 1,
		IsActive:       true,
	}
	p.Name = model.PostName(p.Sequence)
	p.Vacate()
	if guardID != "" {
		p.AssignTo(guardID)
	}
	if _, err := f.posts.CreateIgnoreExisting(ctx, []model.OperationalPost{p}); err != nil {
		t.Fatalf("写入岗位失败: %v", err)
	}
	for id, stored := range f.posts.posts {
		if stored.Sequence == p.Sequence && stored.InstallationID == testInst && stored.RoleID == testRole {
			return id
		}
	}
	t.Fatal("岗位未写入")
	return ""
}

// generateMarch 生成 2025 年 3 月排班
func (f *fixture) generateMarch(t *testing.T, svc *Service, postID string) {
	t.Helper()
	if _, err := svc.Roster.GenerateMonth(ctx, testTenant, postID, 2025, 3, testActor); err != nil {
		t.Fatalf("生成 3 月排班失败: %v", err)
	}
}

// entry 读取落库后的条目
func (f *fixture) entry(t *testing.T, postID string, day int) *model.RosterEntry {
	t.Helper()
	e, ok := f.roster.entries[marchEntry(postID, day)]
	if !ok {
		t.Fatalf("条目 %s 第 %d 天不存在", postID, day)
	}
	return e
}

func marchEntry(postID string, day int) string {
	return entryKey(postID, model.CivilDate(2025, 3, day))
}

func strPtr(s string) *string { return &s }

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"guard-roster/internal/model"
	"guard-roster/internal/repository"
	pkgerrors "guard-roster/pkg/errors"
)

// 模拟数据库约束违反
func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", pkgerrors.ErrDuplicateKey, constraint)
}

var errCheckViolation = errors.New("violates check constraint")

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ── Mock RoleRepository ──

type mockRoleRepo struct {
	roles map[string]*model.Role
	seq   int
}

func newMockRoleRepo() *mockRoleRepo {
	return &mockRoleRepo{roles: make(map[string]*model.Role)}
}

func (m *mockRoleRepo) Create(_ context.Context, role *model.Role) error {
	for _, r := range m.roles {
		if r.TenantID == role.TenantID && r.Name == role.Name {
			return duplicate("uq_roles_tenant_name")
		}
	}
	if role.RoleID == "" {
		m.seq++
		role.RoleID = fmt.Sprintf("role-%d", m.seq)
	}
	if role.Version == 0 {
		role.Version = 1
	}
	cp := *role
	m.roles[role.RoleID] = &cp
	return nil
}

func (m *mockRoleRepo) GetByID(_ context.Context, tenantID, id string) (*model.Role, error) {
	r, ok := m.roles[id]
	if !ok || r.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRoleRepo) List(_ context.Context, tenantID string, includeInactive bool) ([]model.Role, error) {
	var out []model.Role
	for _, r := range m.roles {
		if r.TenantID == tenantID && (includeInactive || r.IsActive) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRoleRepo) Update(_ context.Context, role *model.Role) error {
	stored, ok := m.roles[role.RoleID]
	if !ok || stored.Version != role.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for _, r := range m.roles {
		if r.RoleID != role.RoleID && r.TenantID == role.TenantID && r.Name == role.Name {
			return duplicate("uq_roles_tenant_name")
		}
	}
	role.Version++
	cp := *role
	m.roles[role.RoleID] = &cp
	return nil
}

// ── Mock PostRepository ──

type mockPostRepo struct {
	posts map[string]*model.OperationalPost
	roles *mockRoleRepo
	seq   int
}

func newMockPostRepo(roles *mockRoleRepo) *mockPostRepo {
	return &mockPostRepo{posts: make(map[string]*model.OperationalPost), roles: roles}
}

func (m *mockPostRepo) withRole(p *model.OperationalPost) *model.OperationalPost {
	cp := *p
	cp.Role = nil
	if r, ok := m.roles.roles[p.RoleID]; ok {
		rc := *r
		cp.Role = &rc
	}
	return &cp
}

// checkRow 模拟 CHECK 约束与在用保安唯一索引
func (m *mockPostRepo) checkRow(p *model.OperationalPost) error {
	if !p.Consistent() {
		return errCheckViolation
	}
	if g, ok := p.Assignment().GuardID(); ok && p.IsActive {
		for _, other := range m.posts {
			if other.PostID != p.PostID && other.IsActive && other.GuardID != nil && *other.GuardID == g {
				return duplicate("uq_posts_active_guard")
			}
		}
	}
	return nil
}

func (m *mockPostRepo) CreateIgnoreExisting(_ context.Context, posts []model.OperationalPost) (int64, error) {
	var n int64
	for i := range posts {
		p := posts[i]
		exists := false
		for _, o := range m.posts {
			if o.InstallationID == p.InstallationID && o.RoleID == p.RoleID && o.Sequence == p.Sequence {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		if err := m.checkRow(&p); err != nil {
			return n, err
		}
		if p.PostID == "" {
			m.seq++
			p.PostID = fmt.Sprintf("post-%d", m.seq)
		}
		if p.Version == 0 {
			p.Version = 1
		}
		p.Role = nil
		m.posts[p.PostID] = &p
		n++
	}
	return n, nil
}

func (m *mockPostRepo) GetByID(_ context.Context, tenantID, id string) (*model.OperationalPost, error) {
	p, ok := m.posts[id]
	if !ok || p.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withRole(p), nil
}

func (m *mockPostRepo) GetByIDForUpdate(_ context.Context, tenantID, id string) (*model.OperationalPost, error) {
	p, ok := m.posts[id]
	if !ok || p.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPostRepo) sorted(filter func(p *model.OperationalPost) bool) []model.OperationalPost {
	var out []model.OperationalPost
	for _, p := range m.posts {
		if filter(p) {
			out = append(out, *m.withRole(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoleID != out[j].RoleID {
			return out[i].RoleID < out[j].RoleID
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

func (m *mockPostRepo) ListByInstallation(_ context.Context, tenantID, installationID, roleID string, includeInactive bool) ([]model.OperationalPost, error) {
	return m.sorted(func(p *model.OperationalPost) bool {
		return p.TenantID == tenantID && p.InstallationID == installationID &&
			(roleID == "" || p.RoleID == roleID) && (includeInactive || p.IsActive)
	}), nil
}

func (m *mockPostRepo) ListPendingCoverage(_ context.Context, tenantID, installationID string) ([]model.OperationalPost, error) {
	return m.sorted(func(p *model.OperationalPost) bool {
		return p.TenantID == tenantID && p.InstallationID == installationID && p.IsActive && p.IsPendingCoverage
	}), nil
}

func (m *mockPostRepo) FindActiveByGuard(_ context.Context, tenantID, guardID string) (*model.OperationalPost, error) {
	for _, p := range m.posts {
		if p.TenantID == tenantID && p.IsActive && p.GuardID != nil && *p.GuardID == guardID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPostRepo) CountActiveByRole(_ context.Context, tenantID, roleID string) (int64, error) {
	var n int64
	for _, p := range m.posts {
		if p.TenantID == tenantID && p.RoleID == roleID && p.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockPostRepo) ListAllActive(_ context.Context) ([]model.OperationalPost, error) {
	out := m.sorted(func(p *model.OperationalPost) bool { return p.IsActive })
	for i := range out {
		out[i].Role = nil
	}
	return out, nil
}

func (m *mockPostRepo) Update(_ context.Context, post *model.OperationalPost) error {
	stored, ok := m.posts[post.PostID]
	if !ok || stored.Version != post.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if err := m.checkRow(post); err != nil {
		return err
	}
	post.Version++
	cp := *post
	cp.Role = nil
	m.posts[post.PostID] = &cp
	return nil
}

// ── Mock RosterRepository ──

type mockRosterRepo struct {
	entries map[string]*model.RosterEntry
	posts   *mockPostRepo
}

func newMockRosterRepo(posts *mockPostRepo) *mockRosterRepo {
	return &mockRosterRepo{entries: make(map[string]*model.RosterEntry), posts: posts}
}

func entryKey(postID string, date time.Time) string {
	return "e-" + postID + "-" + date.Format(model.DateLayout)
}

func cloneEntry(e *model.RosterEntry) model.RosterEntry {
	cp := *e
	cp.Metadata = datatypes.JSONMap{}
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Post = nil
	return cp
}

func (m *mockRosterRepo) attachPost(e *model.RosterEntry) {
	if p, ok := m.posts.posts[e.PostID]; ok {
		e.Post = m.posts.withRole(p)
	}
}

func (m *mockRosterRepo) list(filter func(e *model.RosterEntry) bool, withPost bool) []model.RosterEntry {
	var out []model.RosterEntry
	for _, e := range m.entries {
		if filter(e) {
			cp := cloneEntry(e)
			if withPost {
				m.attachPost(&cp)
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DutyDate.Equal(out[j].DutyDate) {
			return out[i].DutyDate.Before(out[j].DutyDate)
		}
		return out[i].PostID < out[j].PostID
	})
	return out
}

func (m *mockRosterRepo) CreateIgnoreExisting(_ context.Context, entries []model.RosterEntry) (int64, error) {
	var n int64
	for i := range entries {
		key := entryKey(entries[i].PostID, entries[i].DutyDate)
		if _, ok := m.entries[key]; ok {
			continue
		}
		e := cloneEntry(&entries[i])
		e.EntryID = key
		if e.Version == 0 {
			e.Version = 1
		}
		m.entries[key] = &e
		n++
	}
	return n, nil
}

func (m *mockRosterRepo) get(tenantID, id string) (*model.RosterEntry, error) {
	e, ok := m.entries[id]
	if !ok || e.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := cloneEntry(e)
	return &cp, nil
}

func (m *mockRosterRepo) GetByID(_ context.Context, tenantID, id string) (*model.RosterEntry, error) {
	return m.get(tenantID, id)
}

func (m *mockRosterRepo) GetByIDForUpdate(_ context.Context, tenantID, id string) (*model.RosterEntry, error) {
	return m.get(tenantID, id)
}

func (m *mockRosterRepo) GetByPostDate(_ context.Context, postID string, date time.Time) (*model.RosterEntry, error) {
	e, ok := m.entries[entryKey(postID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := cloneEntry(e)
	return &cp, nil
}

func (m *mockRosterRepo) ListByPostMonth(_ context.Context, postID string, year, month int) ([]model.RosterEntry, error) {
	return m.list(func(e *model.RosterEntry) bool {
		return e.PostID == postID && e.Year == year && e.Month == month
	}, false), nil
}

func (m *mockRosterRepo) ListByPostFrom(_ context.Context, postID string, from time.Time) ([]model.RosterEntry, error) {
	return m.list(func(e *model.RosterEntry) bool {
		return e.PostID == postID && !e.DutyDate.Before(from)
	}, false), nil
}

func (m *mockRosterRepo) FindNearestBefore(_ context.Context, postID string, date time.Time) (*model.RosterEntry, error) {
	prior := m.list(func(e *model.RosterEntry) bool {
		return e.PostID == postID && e.DutyDate.Before(date)
	}, false)
	if len(prior) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	last := prior[len(prior)-1]
	return &last, nil
}

func (m *mockRosterRepo) ListByInstallationRange(_ context.Context, tenantID, installationID string, from, to time.Time) ([]model.RosterEntry, error) {
	return m.list(func(e *model.RosterEntry) bool {
		return e.TenantID == tenantID && e.InstallationID == installationID &&
			!e.DutyDate.Before(from) && !e.DutyDate.After(to)
	}, true), nil
}

func (m *mockRosterRepo) ListActiveByDate(_ context.Context, tenantID, installationID string, date time.Time) ([]model.RosterEntry, error) {
	return m.list(func(e *model.RosterEntry) bool {
		p, ok := m.posts.posts[e.PostID]
		return ok && p.IsActive && e.TenantID == tenantID && sameDay(e.DutyDate, date) &&
			(installationID == "" || e.InstallationID == installationID)
	}, true), nil
}

func (m *mockRosterRepo) ListByGuardRange(_ context.Context, tenantID, guardID string, from, to time.Time) ([]model.RosterEntry, error) {
	return m.list(func(e *model.RosterEntry) bool {
		if e.TenantID != tenantID || e.DutyDate.Before(from) || e.DutyDate.After(to) {
			return false
		}
		return (e.GuardID != nil && *e.GuardID == guardID) ||
			e.Meta(model.MetaSubstituteGuardID) == guardID ||
			e.Meta(model.MetaCoverageGuardID) == guardID
	}, true), nil
}

func (m *mockRosterRepo) ListGuardDuties(_ context.Context, tenantID, guardID string, date time.Time) ([]model.RosterEntry, error) {
	return m.list(func(e *model.RosterEntry) bool {
		return e.TenantID == tenantID && e.GuardID != nil && *e.GuardID == guardID && sameDay(e.DutyDate, date) &&
			(e.State == model.StatePlanned || e.State == model.StateWorked)
	}, false), nil
}

func (m *mockRosterRepo) Update(_ context.Context, entry *model.RosterEntry) error {
	stored, ok := m.entries[entry.EntryID]
	if !ok || stored.Version != entry.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if entry.State == model.StateWorked && !entry.HasGuard() {
		return errCheckViolation
	}
	entry.Version++
	cp := cloneEntry(entry)
	m.entries[entry.EntryID] = &cp
	return nil
}

// ── Mock ExtraShiftRepository ──

type mockExtraShiftRepo struct {
	items map[string]*model.ExtraShift
	seq   int
}

func newMockExtraShiftRepo() *mockExtraShiftRepo {
	return &mockExtraShiftRepo{items: make(map[string]*model.ExtraShift)}
}

// checkRow 模拟 CHECK 约束与 (guard, date) 部分唯一索引
func (m *mockExtraShiftRepo) checkRow(x *model.ExtraShift) error {
	if x.RosterEntryID == nil && !x.Preserved {
		return errCheckViolation
	}
	if (x.PaymentStatus == model.PaymentPaid) != (x.PaymentBatchID != nil) {
		return errCheckViolation
	}
	if x.Amount.IsNegative() {
		return errCheckViolation
	}
	if x.PaymentStatus == model.PaymentCancelled {
		return nil
	}
	for _, o := range m.items {
		if o.ExtraShiftID != x.ExtraShiftID && o.GuardID == x.GuardID && sameDay(o.DutyDate, x.DutyDate) &&
			o.PaymentStatus != model.PaymentCancelled {
			return duplicate("uq_extra_guard_date_active")
		}
	}
	return nil
}

func (m *mockExtraShiftRepo) Create(_ context.Context, x *model.ExtraShift) error {
	if err := m.checkRow(x); err != nil {
		return err
	}
	if x.ExtraShiftID == "" {
		m.seq++
		x.ExtraShiftID = fmt.Sprintf("x-%d", m.seq)
	}
	if x.Version == 0 {
		x.Version = 1
	}
	cp := *x
	m.items[x.ExtraShiftID] = &cp
	return nil
}

func (m *mockExtraShiftRepo) GetByID(_ context.Context, tenantID, id string) (*model.ExtraShift, error) {
	x, ok := m.items[id]
	if !ok || x.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *x
	return &cp, nil
}

func (m *mockExtraShiftRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.ExtraShift, error) {
	return m.GetByID(ctx, tenantID, id)
}

func (m *mockExtraShiftRepo) FindActiveByGuardDate(_ context.Context, tenantID, guardID string, date time.Time) (*model.ExtraShift, error) {
	for _, x := range m.items {
		if x.TenantID == tenantID && x.GuardID == guardID && sameDay(x.DutyDate, date) && x.PaymentStatus != model.PaymentCancelled {
			cp := *x
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExtraShiftRepo) List(_ context.Context, f repository.ExtraShiftFilter) ([]model.ExtraShift, int64, error) {
	var out []model.ExtraShift
	for _, x := range m.items {
		if x.TenantID != f.TenantID {
			continue
		}
		if f.GuardID != "" && x.GuardID != f.GuardID {
			continue
		}
		if f.InstallationID != "" && x.InstallationID != f.InstallationID {
			continue
		}
		if f.Status != "" && x.PaymentStatus != f.Status {
			continue
		}
		if f.From != nil && x.DutyDate.Before(*f.From) {
			continue
		}
		if f.To != nil && x.DutyDate.After(*f.To) {
			continue
		}
		out = append(out, *x)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DutyDate.Equal(out[j].DutyDate) {
			return out[i].DutyDate.After(out[j].DutyDate)
		}
		return out[i].ExtraShiftID < out[j].ExtraShiftID
	})
	total := int64(len(out))
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *mockExtraShiftRepo) Update(_ context.Context, x *model.ExtraShift) error {
	stored, ok := m.items[x.ExtraShiftID]
	if !ok || stored.Version != x.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if err := m.checkRow(x); err != nil {
		return err
	}
	x.Version++
	cp := *x
	m.items[x.ExtraShiftID] = &cp
	return nil
}

// ── Mock RosterChangeLogRepository ──

type mockChangeLogRepo struct {
	logs []model.RosterChangeLog
}

func (m *mockChangeLogRepo) Create(_ context.Context, log *model.RosterChangeLog) error {
	log.ChangeLogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockChangeLogRepo) ListByEntry(_ context.Context, tenantID, entryID string) ([]model.RosterChangeLog, error) {
	var out []model.RosterChangeLog
	for _, l := range m.logs {
		if l.TenantID == tenantID && l.RosterEntryID == entryID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ── Mock DirectoryRepository ──

type mockDirectoryRepo struct {
	installations map[string]*model.Installation
	guards        map[string]*model.Guard
}

func newMockDirectoryRepo() *mockDirectoryRepo {
	return &mockDirectoryRepo{
		installations: make(map[string]*model.Installation),
		guards:        make(map[string]*model.Guard),
	}
}

func (m *mockDirectoryRepo) GetInstallation(_ context.Context, tenantID, id string) (*model.Installation, error) {
	i, ok := m.installations[id]
	if !ok || i.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *mockDirectoryRepo) GetGuard(_ context.Context, tenantID, id string) (*model.Guard, error) {
	g, ok := m.guards[id]
	if !ok || g.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

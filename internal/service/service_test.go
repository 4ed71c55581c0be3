package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/locator"
	"github.com/ebstat/sdkmendixtest/internal/model"
	"github.com/ebstat/sdkmendixtest/internal/platform"
)

const fixturePath = "../../testdata/fixture.json"

var salesApp = domain.ModelRef{AppID: "sales-app"}

// --- fakes ---

type fakeSessions struct {
	mu        sync.Mutex
	created   []domain.Session
	finished  []domain.Session
	createErr error
}

func (f *fakeSessions) Create(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *s)
	return nil
}

func (f *fakeSessions) Finish(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, *s)
	return nil
}

func (f *fakeSessions) last(t *testing.T) domain.Session {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.finished)
	return f.finished[len(f.finished)-1]
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	err    error
}

func (f *fakeEvents) PublishModelChanged(_ context.Context, e domain.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

// cancellingPlatform отменяет контекст запроса во время загрузки модели
// и проверяет, что удаление working copy получает живой контекст.
type cancellingPlatform struct {
	*platform.Memory
	cancel    context.CancelFunc
	deleteCtx error
}

func (p *cancellingPlatform) LoadModel(ctx context.Context, wcID string) (*model.Document, error) {
	p.cancel()
	return nil, ctx.Err()
}

func (p *cancellingPlatform) DeleteWorkingCopy(ctx context.Context, wcID string) error {
	p.deleteCtx = ctx.Err()
	return p.Memory.DeleteWorkingCopy(ctx, wcID)
}

type env struct {
	svc      *ModelService
	platform *platform.Memory
	sessions *fakeSessions
	events   *fakeEvents
	logs     *bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mem, err := platform.LoadFixture(fixturePath)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := &env{
		platform: mem,
		sessions: &fakeSessions{},
		events:   &fakeEvents{},
		logs:     logs,
	}
	e.svc = New(Config{
		Platform: mem,
		Locator:  locator.New(locator.Config{Logger: logger}),
		Sessions: e.sessions,
		Events:   e.events,
		Logger:   logger,
	})
	return e
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, name(it))
	}
	return out
}

func microflowName(m domain.MicroflowSummary) string { return m.Name }

// --- read operations ---

func TestListModules(t *testing.T) {
	e := newEnv(t)

	modules, err := e.svc.ListModules(context.Background(), salesApp)
	require.NoError(t, err)

	assert.Equal(t, []string{"Billing", "CommunityCommons", "Sales"},
		names(modules, func(m domain.ModuleSummary) string { return m.Name }))
	assert.True(t, modules[1].FromAppStore)

	assert.Empty(t, e.platform.WorkingCopyIDs(), "working copy must be discarded")

	s := e.sessions.last(t)
	assert.Equal(t, domain.SessionStatusDiscarded, s.Status)
	assert.Equal(t, OpListModules, s.Operation)
	assert.Equal(t, "main", s.Branch)
	assert.NotNil(t, s.FinishedAt)
}

func TestListMicroflows_AllWithResolution(t *testing.T) {
	e := newEnv(t)

	mfs, err := e.svc.ListMicroflows(context.Background(), salesApp, "")
	require.NoError(t, err)
	require.Len(t, mfs, 6)

	byName := make(map[string]domain.MicroflowSummary)
	for _, mf := range mfs {
		byName[mf.Name] = mf
	}

	tests := []struct {
		name       string
		module     string
		resolved   bool
		resolvedBy locator.Strategy
	}{
		{"ACT_ProcessOrder", "Sales", true, locator.StrategyAncestorWalk},
		{"SUB_ValidateOrder", "Sales", true, locator.StrategyDirectOwner},
		{"ACT_CreateInvoice", "Billing", true, locator.StrategyAncestorWalk},
		{"ACT_Orphan", "Legacy", true, locator.StrategyQualifiedName},
		{"ACT_Lost", domain.UnresolvedModule, false, locator.StrategyUnresolved},
		{"ACT_Broken", domain.UnresolvedModule, false, locator.StrategyFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mf, ok := byName[tt.name]
			require.True(t, ok)
			assert.Equal(t, tt.module, mf.Module)
			assert.Equal(t, tt.resolved, mf.ModuleResolved)
			assert.Equal(t, string(tt.resolvedBy), mf.ResolvedBy)
		})
	}

	assert.Contains(t, e.logs.String(), "cannot resolve module for element")
	assert.Contains(t, e.logs.String(), "ACT_Broken")
}

func TestListMicroflows_Filter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sales, err := e.svc.ListMicroflows(ctx, salesApp, "Sales")
	require.NoError(t, err)
	// ACT_Broken has qualified name Sales.* but its container is dangling.
	assert.Equal(t, []string{"ACT_ProcessOrder", "SUB_ValidateOrder"}, names(sales, microflowName))

	legacy, err := e.svc.ListMicroflows(ctx, salesApp, "Legacy")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACT_Orphan"}, names(legacy, microflowName))

	_, err = e.svc.ListMicroflows(ctx, salesApp, "sales")
	assert.ErrorIs(t, err, ErrNoMatch, "filter is case-sensitive")

	_, err = e.svc.ListMicroflows(ctx, salesApp, domain.UnresolvedModule)
	assert.ErrorIs(t, err, ErrNoMatch, "fallback label is not a module")
}

func TestGetMicroflow(t *testing.T) {
	e := newEnv(t)

	mf, err := e.svc.GetMicroflow(context.Background(), salesApp, "Sales", "ACT_ProcessOrder")
	require.NoError(t, err)

	assert.Equal(t, "mf-process", mf.ID)
	assert.Equal(t, "Sales", mf.Module)
	assert.Equal(t, "Boolean", mf.ReturnType)
	assert.Equal(t, []domain.Parameter{{Name: "Order", Type: "Sales.Order"}}, mf.Parameters)
	assert.Len(t, mf.Activities, 3)
	assert.Equal(t, []string{"Sales.Manager"}, mf.AllowedRoles)
}

func TestGetMicroflow_WithoutDetails(t *testing.T) {
	e := newEnv(t)

	mf, err := e.svc.GetMicroflow(context.Background(), salesApp, "Sales", "SUB_ValidateOrder")
	require.NoError(t, err)

	assert.Equal(t, model.DefaultReturnType, mf.ReturnType)
	assert.Empty(t, mf.Activities)
	assert.Equal(t, string(locator.StrategyDirectOwner), mf.ResolvedBy)
}

func TestGetMicroflow_NotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.GetMicroflow(ctx, salesApp, "Sales", "ACT_Missing")
	assert.ErrorIs(t, err, ErrMicroflowNotFound)

	// Exists, but in another module.
	_, err = e.svc.GetMicroflow(ctx, salesApp, "Sales", "ACT_CreateInvoice")
	assert.ErrorIs(t, err, ErrMicroflowNotFound)

	_, err = e.svc.GetMicroflow(ctx, salesApp, "Sales", "ACT_Broken")
	assert.ErrorIs(t, err, ErrMicroflowNotFound)

	assert.Equal(t, domain.SessionStatusFailed, e.sessions.last(t).Status)
}

func TestListEntities(t *testing.T) {
	e := newEnv(t)

	entities, err := e.svc.ListEntities(context.Background(), salesApp, "Sales")
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, "Order", entities[0].Name)
	assert.Equal(t, "Sales", entities[0].Module)
	assert.Len(t, entities[0].Attributes, 2)
	assert.Equal(t, 200, entities[1].Attributes[0].Length)
}

func TestListEntities_UnknownModule(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.ListEntities(context.Background(), salesApp, "Nope")
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.Empty(t, e.platform.WorkingCopyIDs())
}

// --- mutations ---

func TestCreateEntity_Commits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	spec := domain.EntitySpec{
		Name: "Shipment",
		Attributes: []domain.AttributeSummary{
			{Name: "TrackingCode", Type: "String", Length: 40},
		},
	}
	created, err := e.svc.CreateEntity(ctx, salesApp, "Sales", spec)
	require.NoError(t, err)

	assert.Equal(t, "Sales.Shipment", created.QualifiedName)
	assert.Equal(t, "Sales", created.Module)
	assert.True(t, created.Persistable)

	s := e.sessions.last(t)
	assert.Equal(t, domain.SessionStatusCommitted, s.Status)
	assert.Equal(t, "r1", s.Revision)

	require.Len(t, e.events.events, 1)
	ev := e.events.events[0]
	assert.Equal(t, domain.KindEntity, ev.Kind)
	assert.Equal(t, "Sales.Shipment", ev.QualifiedName())
	assert.Equal(t, created.ID, ev.UnitID)
	assert.Equal(t, s.ID, ev.SessionID)
	assert.Equal(t, "r1", ev.Revision)

	entities, err := e.svc.ListEntities(ctx, salesApp, "Sales")
	require.NoError(t, err)
	assert.Len(t, entities, 3, "commit must be visible to the next working copy")
}

func TestCreateEntity_Errors(t *testing.T) {
	tests := []struct {
		name   string
		module string
		spec   domain.EntitySpec
		want   error
	}{
		{"duplicate", "Sales", domain.EntitySpec{Name: "Order"}, model.ErrDuplicateName},
		{"read-only module", "CommunityCommons", domain.EntitySpec{Name: "Thing"}, model.ErrReadOnlyModule},
		{"unknown module", "Nope", domain.EntitySpec{Name: "Thing"}, ErrModuleNotFound},
		{"invalid name", "Sales", domain.EntitySpec{Name: "1Bad"}, model.ErrInvalidName},
		{"unknown attribute type", "Sales", domain.EntitySpec{
			Name:       "Thing",
			Attributes: []domain.AttributeSummary{{Name: "X", Type: "Float"}},
		}, model.ErrInvalidSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			_, err := e.svc.CreateEntity(context.Background(), salesApp, tt.module, tt.spec)
			assert.ErrorIs(t, err, tt.want)

			assert.Empty(t, e.events.events)
			assert.Empty(t, e.platform.WorkingCopyIDs())

			s := e.sessions.last(t)
			assert.Equal(t, domain.SessionStatusFailed, s.Status)
			assert.Empty(t, s.Revision)
			assert.NotEmpty(t, s.Error)
		})
	}
}

func TestCreateMicroflow_InFolder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	spec := domain.MicroflowSpec{
		Name:       "ACT_ShipOrder",
		Folder:     "Orders/Admin",
		Parameters: []domain.Parameter{{Name: "Order", Type: "Sales.Order"}},
	}
	created, err := e.svc.CreateMicroflow(ctx, salesApp, "Sales", spec)
	require.NoError(t, err)

	assert.Equal(t, "Sales.ACT_ShipOrder", created.QualifiedName)
	assert.Equal(t, model.DefaultReturnType, created.ReturnType)
	assert.True(t, created.ModuleResolved)

	require.Len(t, e.events.events, 1)
	assert.Equal(t, domain.KindMicroflow, e.events.events[0].Kind)

	sales, err := e.svc.ListMicroflows(ctx, salesApp, "Sales")
	require.NoError(t, err)
	assert.Contains(t, names(sales, microflowName), "ACT_ShipOrder")

	details, err := e.svc.GetMicroflow(ctx, salesApp, "Sales", "ACT_ShipOrder")
	require.NoError(t, err)
	assert.Equal(t, spec.Parameters, details.Parameters)
}

func TestCreateMicroflow_UnknownFolder(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateMicroflow(context.Background(), salesApp, "Sales",
		domain.MicroflowSpec{Name: "ACT_X", Folder: "Nope"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreate_PublishFailureDoesNotFailRequest(t *testing.T) {
	e := newEnv(t)
	e.events.err = errors.New("broker down")

	_, err := e.svc.CreateEntity(context.Background(), salesApp, "Sales", domain.EntitySpec{Name: "Shipment"})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStatusCommitted, e.sessions.last(t).Status)
	assert.Contains(t, e.logs.String(), "failed to publish model change")
}

// --- lifecycle failures ---

func TestCommitFailure(t *testing.T) {
	e := newEnv(t)
	e.platform.FailOn("commit", platform.ErrConflict)

	_, err := e.svc.CreateEntity(context.Background(), salesApp, "Sales", domain.EntitySpec{Name: "Shipment"})
	assert.ErrorIs(t, err, platform.ErrConflict)

	assert.Empty(t, e.events.events)
	assert.Empty(t, e.platform.WorkingCopyIDs())
	assert.Equal(t, domain.SessionStatusFailed, e.sessions.last(t).Status)
}

func TestCreateWorkingCopyFailure(t *testing.T) {
	e := newEnv(t)
	e.platform.FailOn("create_working_copy", platform.ErrUnavailable)

	_, err := e.svc.ListModules(context.Background(), salesApp)
	assert.ErrorIs(t, err, platform.ErrUnavailable)
	assert.Empty(t, e.sessions.created)
}

func TestUnknownApp(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.ListModules(context.Background(), domain.ModelRef{AppID: "nope"})
	assert.ErrorIs(t, err, platform.ErrNotFound)

	_, err = e.svc.ListModules(context.Background(), domain.ModelRef{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSessionStoreFailure_DiscardsWorkingCopy(t *testing.T) {
	e := newEnv(t)
	e.sessions.createErr = errors.New("db down")

	_, err := e.svc.ListModules(context.Background(), salesApp)
	require.Error(t, err)
	assert.Empty(t, e.platform.WorkingCopyIDs())
	assert.Empty(t, e.sessions.finished)
}

func TestDeleteFailure_LeavesSessionOpen(t *testing.T) {
	e := newEnv(t)
	e.platform.FailOn("delete_working_copy", platform.ErrUnavailable)

	_, err := e.svc.ListModules(context.Background(), salesApp)
	require.NoError(t, err)

	assert.Len(t, e.sessions.created, 1)
	assert.Empty(t, e.sessions.finished, "janitor expires the session later")
	assert.Contains(t, e.logs.String(), "failed to delete working copy")
}

func TestCancelledRequest_StillDiscards(t *testing.T) {
	mem, err := platform.LoadFixture(fixturePath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	p := &cancellingPlatform{Memory: mem, cancel: cancel}
	svc := New(Config{Platform: p})

	_, err = svc.ListModules(ctx, salesApp)
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, p.deleteCtx)
	assert.Empty(t, mem.WorkingCopyIDs())
}

func TestBranchOverride(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.ListModules(context.Background(), domain.ModelRef{AppID: "sales-app", Branch: "feature"})
	assert.ErrorIs(t, err, platform.ErrNotFound)

	svc := New(Config{Platform: e.platform, DefaultBranch: "main", Sessions: e.sessions})
	_, err = svc.ListModules(context.Background(), salesApp)
	require.NoError(t, err)
	assert.Equal(t, "main", e.sessions.last(t).Branch)
}

package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebstat/sdkmendixtest/internal/domain"
	"github.com/ebstat/sdkmendixtest/internal/model"
)

func loadTestFixture(t *testing.T) *Memory {
	t.Helper()
	mem, err := LoadFixture("../../testdata/fixture.json")
	require.NoError(t, err)
	return mem
}

func TestMemory_CommitIsVisibleToNextWorkingCopy(t *testing.T) {
	mem := loadTestFixture(t)
	ctx := context.Background()

	wc, err := mem.CreateWorkingCopy(ctx, "sales-app", DefaultBranch)
	require.NoError(t, err)

	doc, err := mem.LoadModel(ctx, wc.ID)
	require.NoError(t, err)
	m, err := model.Build(doc)
	require.NoError(t, err)

	_, change, err := m.AddMicroflow("Sales", domain.MicroflowSpec{Name: "ACT_New"})
	require.NoError(t, err)
	require.NoError(t, mem.ApplyChanges(ctx, wc.ID, []model.Change{change}))

	rev, err := mem.Commit(ctx, wc.ID, "add ACT_New")
	require.NoError(t, err)
	assert.Equal(t, "r1", rev)
	require.NoError(t, mem.DeleteWorkingCopy(ctx, wc.ID))
	assert.Empty(t, mem.WorkingCopyIDs())

	wc2, err := mem.CreateWorkingCopy(ctx, "sales-app", DefaultBranch)
	require.NoError(t, err)
	doc2, err := mem.LoadModel(ctx, wc2.ID)
	require.NoError(t, err)
	assert.Len(t, doc2.Units, len(doc.Units)+1)

	details, err := mem.LoadMicroflow(ctx, wc2.ID, change.Unit.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultReturnType, details.ReturnType)
}

func TestMemory_UncommittedChangesAreDiscarded(t *testing.T) {
	mem := loadTestFixture(t)
	ctx := context.Background()

	wc, err := mem.CreateWorkingCopy(ctx, "sales-app", DefaultBranch)
	require.NoError(t, err)
	before, _ := mem.LoadModel(ctx, wc.ID)

	err = mem.ApplyChanges(ctx, wc.ID, []model.Change{{
		Op: domain.ChangeOpCreate, ContainerID: "p1",
		Unit: &model.UnitDoc{ID: "x", Kind: domain.KindFolder, Name: "X", ContainerID: "p1"},
	}})
	require.NoError(t, err)
	require.NoError(t, mem.DeleteWorkingCopy(ctx, wc.ID))

	wc2, _ := mem.CreateWorkingCopy(ctx, "sales-app", DefaultBranch)
	after, _ := mem.LoadModel(ctx, wc2.ID)
	assert.Len(t, after.Units, len(before.Units))
}

func TestMemory_Errors(t *testing.T) {
	mem := loadTestFixture(t)
	ctx := context.Background()

	_, err := mem.CreateWorkingCopy(ctx, "nope", DefaultBranch)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = mem.CreateWorkingCopy(ctx, "sales-app", "feature")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = mem.LoadModel(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	wc, _ := mem.CreateWorkingCopy(ctx, "sales-app", DefaultBranch)
	_, err = mem.LoadMicroflow(ctx, wc.ID, "mf-lost")
	assert.ErrorIs(t, err, ErrNotFound)

	err = mem.ApplyChanges(ctx, wc.ID, []model.Change{{Op: domain.ChangeOpCreate, ContainerID: "nope",
		Entity: &model.EntityDoc{ID: "e", Name: "E"}}})
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)

	boom := errors.New("boom")
	mem.FailOn("commit", boom)
	_, err = mem.Commit(ctx, wc.ID, "msg")
	assert.ErrorIs(t, err, boom)
}

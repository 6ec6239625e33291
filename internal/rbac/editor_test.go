package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	routeIDs      []uint
	permissionIDs []uint
	err           error
}

func (f *fakeSource) Routes(context.Context) ([]Route, error) {
	return []Route{{ID: 1, Path: "/"}, {ID: 2, Path: "/article"}}, f.err
}

func (f *fakeSource) Permissions(context.Context) ([]Permission, error) {
	return masterPermissions(), nil
}

func (f *fakeSource) RoleRouteIDs(context.Context, uint) ([]uint, error) {
	return f.routeIDs, nil
}

func (f *fakeSource) RolePermissionIDs(context.Context, uint) ([]uint, error) {
	return f.permissionIDs, nil
}

type call struct {
	roleID        uint
	routeIDs      []uint
	permissionIDs []uint
}

type fakeStore struct {
	calls []call
	err   error
	hook  func()
}

func (f *fakeStore) Bind(_ context.Context, roleID uint, routeIDs, permissionIDs []uint) error {
	if f.hook != nil {
		f.hook()
	}
	f.calls = append(f.calls, call{roleID, routeIDs, permissionIDs})
	return f.err
}

func loadedEditor(t *testing.T, store *fakeStore) *Editor {
	t.Helper()
	e := NewEditor(&fakeSource{routeIDs: []uint{1}, permissionIDs: []uint{1, 3}}, store)
	_, err := e.Load(context.Background(), Role{ID: 2, Name: "author"})
	require.NoError(t, err)
	return e
}

func TestEditorLoad(t *testing.T) {
	e := loadedEditor(t, &fakeStore{})

	ed, ok := e.State().(Editing)
	require.True(t, ok)
	assert.Equal(t, []uint{1}, ed.RouteIDs)
	assert.Equal(t, []uint{1, 3}, ed.PermissionIDs())
	assert.Len(t, ed.Routes, 2)
}

func TestEditorLoadFailureStaysIdle(t *testing.T) {
	e := NewEditor(&fakeSource{err: errors.New("boom")}, &fakeStore{})
	_, err := e.Load(context.Background(), Role{ID: 1})
	require.Error(t, err)
	assert.IsType(t, Idle{}, e.State())
}

func TestEditorMutationsRequireSession(t *testing.T) {
	e := NewEditor(&fakeSource{}, &fakeStore{})

	assert.ErrorIs(t, e.ToggleGroup("tag", true), ErrNotEditing)
	assert.ErrorIs(t, e.SetRoutes([]uint{1}), ErrNotEditing)
	_, err := e.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestEditorSubmit(t *testing.T) {
	store := &fakeStore{}
	e := loadedEditor(t, store)

	require.NoError(t, e.ToggleGroup("tag", true))
	require.NoError(t, e.SetGroup("article", []uint{2}))
	require.NoError(t, e.SetRoutes([]uint{1, 2}))

	res, err := e.Submit(context.Background(), &PermissionContext{RoleID: 1})
	require.NoError(t, err)
	assert.False(t, res.Relogin)
	assert.IsType(t, Idle{}, e.State())

	require.Len(t, store.calls, 1)
	assert.Equal(t, uint(2), store.calls[0].roleID)
	assert.Equal(t, []uint{1, 2}, store.calls[0].routeIDs)
	assert.Equal(t, []uint{2, 3, 5}, store.calls[0].permissionIDs)
}

func TestEditorSubmitOwnRoleRequiresRelogin(t *testing.T) {
	e := loadedEditor(t, &fakeStore{})

	res, err := e.Submit(context.Background(), &PermissionContext{RoleID: 2})
	require.NoError(t, err)
	assert.True(t, res.Relogin)
}

func TestEditorSubmitRejectsEmptySelection(t *testing.T) {
	t.Run("no routes", func(t *testing.T) {
		store := &fakeStore{}
		e := loadedEditor(t, store)
		require.NoError(t, e.SetRoutes(nil))

		_, err := e.Submit(context.Background(), nil)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Empty(t, store.calls)
	})

	t.Run("no permissions", func(t *testing.T) {
		store := &fakeStore{}
		e := loadedEditor(t, store)
		for _, g := range []string{"article", "tag", "config"} {
			require.NoError(t, e.ToggleGroup(g, false))
		}

		_, err := e.Submit(context.Background(), nil)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Empty(t, store.calls)

		failed, ok := e.State().(Failed)
		require.True(t, ok)
		assert.Equal(t, []uint{1}, failed.Editing.RouteIDs, "selections survive a rejected submit")
	})
}

func TestEditorStoreFailureKeepsSelection(t *testing.T) {
	store := &fakeStore{err: errors.New("network down")}
	e := loadedEditor(t, store)
	require.NoError(t, e.ToggleGroup("config", true))

	_, err := e.Submit(context.Background(), nil)
	require.Error(t, err)

	failed, ok := e.State().(Failed)
	require.True(t, ok)
	assert.Equal(t, []uint{1, 3, 7}, failed.Editing.PermissionIDs())

	// 重试
	store.err = nil
	_, err = e.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, store.calls, 2)
	assert.Equal(t, []uint{1, 3, 7}, store.calls[1].permissionIDs)
}

func TestEditorRejectsChangesWhileSubmitting(t *testing.T) {
	store := &fakeStore{}
	e := loadedEditor(t, store)

	var toggleErr, submitErr, closeErr error
	store.hook = func() {
		assert.IsType(t, Submitting{}, e.State())
		toggleErr = e.ToggleGroup("tag", true)
		_, submitErr = e.Submit(context.Background(), nil)
		closeErr = e.Close()
	}

	_, err := e.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, toggleErr, ErrBusy)
	assert.ErrorIs(t, submitErr, ErrBusy)
	assert.ErrorIs(t, closeErr, ErrBusy)
	assert.Len(t, store.calls, 1)
}

func TestEditorClose(t *testing.T) {
	e := loadedEditor(t, &fakeStore{})
	require.NoError(t, e.Close())
	assert.Equal(t, "idle", e.State().Name())
}

func TestEditorStateIsSnapshot(t *testing.T) {
	e := NewEditor(&fakeSource{routeIDs: []uint{1}, permissionIDs: []uint{1, 3}}, &fakeStore{})
	loaded, err := e.Load(context.Background(), Role{ID: 2})
	require.NoError(t, err)

	require.NoError(t, loaded.Selection.Toggle("config", true))
	loaded.RouteIDs[0] = 99

	ed, ok := e.State().(Editing)
	require.True(t, ok)
	assert.Equal(t, []uint{1}, ed.RouteIDs)
	assert.Equal(t, []uint{1, 3}, ed.PermissionIDs())

	require.NoError(t, ed.Selection.Toggle("tag", true))
	again := e.State().(Editing)
	assert.Equal(t, []uint{1, 3}, again.PermissionIDs(), "only editor operations change the session")
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tags/app/apperrors"
	"todo-tags/app/models"
)

// setupTestStore opens a private in-memory database.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })
	return st
}

func mustCreateTask(t *testing.T, st Store, name string) models.Task {
	t.Helper()
	task := models.Task{Name: name}
	require.NoError(t, st.Update(context.Background(), func(tx Tx) error {
		return tx.CreateTask(context.Background(), &task)
	}))
	return task
}

func mustInsertTags(t *testing.T, st Store, names ...string) []models.Tag {
	t.Helper()
	var tags []models.Tag
	for _, n := range names {
		tags = append(tags, models.Tag{Name: n, Color: "#123456"})
	}
	var created []models.Tag
	require.NoError(t, st.Update(context.Background(), func(tx Tx) error {
		var err error
		created, err = tx.InsertTags(context.Background(), tags)
		return err
	}))
	return created
}

func getTask(t *testing.T, st Store, id int64) *models.Task {
	t.Helper()
	var task *models.Task
	require.NoError(t, st.View(context.Background(), func(tx Tx) error {
		var err error
		task, err = tx.GetTask(context.Background(), id)
		return err
	}))
	return task
}

func TestSQLite_CreateAndGetTask(t *testing.T) {
	st := setupTestStore(t)
	created := mustCreateTask(t, st, "Write report")

	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got := getTask(t, st, created.ID)
	assert.Equal(t, "Write report", got.Name)
	assert.False(t, got.Done)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
	assert.Empty(t, got.Tags)
}

func TestSQLite_GetTaskNotFound(t *testing.T) {
	st := setupTestStore(t)
	err := st.View(context.Background(), func(tx Tx) error {
		_, err := tx.GetTask(context.Background(), 42)
		return err
	})
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestSQLite_InsertAndFindTagsCaseInsensitive(t *testing.T) {
	st := setupTestStore(t)
	created := mustInsertTags(t, st, "Work", "home")
	require.Len(t, created, 2)
	assert.NotZero(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)

	var found []models.Tag
	require.NoError(t, st.View(context.Background(), func(tx Tx) error {
		var err error
		found, err = tx.FindTagsByNames(context.Background(), []string{"WORK", "Home", "missing", "wor"})
		return err
	}))
	assert.ElementsMatch(t, created, found)
}

func TestSQLite_TagNameKeyIsUnique(t *testing.T) {
	st := setupTestStore(t)
	mustInsertTags(t, st, "Urgent")

	err := st.Update(context.Background(), func(tx Tx) error {
		_, err := tx.InsertTags(context.Background(), []models.Tag{{Name: "URGENT"}})
		return err
	})
	assert.True(t, apperrors.Is(err, apperrors.Duplicate), "got %v", err)
}

func TestSQLite_InsertTagDefaultsColor(t *testing.T) {
	st := setupTestStore(t)
	var created []models.Tag
	require.NoError(t, st.Update(context.Background(), func(tx Tx) error {
		var err error
		created, err = tx.InsertTags(context.Background(), []models.Tag{{Name: "plain"}})
		return err
	}))
	assert.Equal(t, models.DefaultTagColor, created[0].Color)
}

func TestSQLite_ReplaceAssociations(t *testing.T) {
	st := setupTestStore(t)
	task := mustCreateTask(t, st, "task")
	tags := mustInsertTags(t, st, "a", "b", "c")
	a, b, c := tags[0].ID, tags[1].ID, tags[2].ID
	ctx := context.Background()

	require.NoError(t, st.Update(ctx, func(tx Tx) error {
		return tx.InsertAssociations(ctx, task.ID, []int64{a, b, b})
	}))
	assert.Equal(t, []int64{a, b}, getTask(t, st, task.ID).TagIDs())

	require.NoError(t, st.Update(ctx, func(tx Tx) error {
		if err := tx.ClearAssociations(ctx, task.ID); err != nil {
			return err
		}
		return tx.InsertAssociations(ctx, task.ID, []int64{b, c})
	}))
	assert.Equal(t, []int64{b, c}, getTask(t, st, task.ID).TagIDs())
}

func TestSQLite_UpdateRollsBackOnError(t *testing.T) {
	st := setupTestStore(t)
	task := mustCreateTask(t, st, "task")
	tags := mustInsertTags(t, st, "keep")
	ctx := context.Background()
	require.NoError(t, st.Update(ctx, func(tx Tx) error {
		return tx.InsertAssociations(ctx, task.ID, []int64{tags[0].ID})
	}))

	boom := errors.New("boom")
	err := st.Update(ctx, func(tx Tx) error {
		if err := tx.ClearAssociations(ctx, task.ID); err != nil {
			return err
		}
		if _, err := tx.InsertTags(ctx, []models.Tag{{Name: "transient"}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []int64{tags[0].ID}, getTask(t, st, task.ID).TagIDs())
	var all []models.Tag
	require.NoError(t, st.View(ctx, func(tx Tx) error {
		var err error
		all, err = tx.ListTags(ctx)
		return err
	}))
	assert.Len(t, all, 1)
}

func TestSQLite_DeleteTagCascades(t *testing.T) {
	st := setupTestStore(t)
	task := mustCreateTask(t, st, "task")
	tags := mustInsertTags(t, st, "x", "y")
	ctx := context.Background()
	require.NoError(t, st.Update(ctx, func(tx Tx) error {
		return tx.InsertAssociations(ctx, task.ID, []int64{tags[0].ID, tags[1].ID})
	}))

	require.NoError(t, st.Update(ctx, func(tx Tx) error {
		return tx.DeleteTag(ctx, tags[0].ID)
	}))

	got := getTask(t, st, task.ID)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "y", got.Tags[0].Name)

	err := st.Update(ctx, func(tx Tx) error { return tx.DeleteTag(ctx, tags[0].ID) })
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestSQLite_DeleteTaskRemovesAssociations(t *testing.T) {
	st := setupTestStore(t)
	task := mustCreateTask(t, st, "task")
	tags := mustInsertTags(t, st, "x")
	ctx := context.Background()
	require.NoError(t, st.Update(ctx, func(tx Tx) error {
		return tx.InsertAssociations(ctx, task.ID, []int64{tags[0].ID})
	}))

	require.NoError(t, st.Update(ctx, func(tx Tx) error { return tx.DeleteTask(ctx, task.ID) }))

	var tasks []models.Task
	require.NoError(t, st.View(ctx, func(tx Tx) error {
		var err error
		tasks, err = tx.ListTasksForTag(ctx, tags[0].ID)
		return err
	}))
	assert.Empty(t, tasks)
}

func TestSQLite_ListTasksAttachesTags(t *testing.T) {
	st := setupTestStore(t)
	t1 := mustCreateTask(t, st, "one")
	t2 := mustCreateTask(t, st, "two")
	mustCreateTask(t, st, "three")
	tags := mustInsertTags(t, st, "p", "q")
	ctx := context.Background()
	require.NoError(t, st.Update(ctx, func(tx Tx) error {
		if err := tx.InsertAssociations(ctx, t1.ID, []int64{tags[0].ID}); err != nil {
			return err
		}
		return tx.InsertAssociations(ctx, t2.ID, []int64{tags[1].ID, tags[0].ID})
	}))

	var tasks []models.Task
	require.NoError(t, st.View(ctx, func(tx Tx) error {
		var err error
		tasks, err = tx.ListTasks(ctx)
		return err
	}))
	require.Len(t, tasks, 3)
	assert.Equal(t, []int64{tags[0].ID}, tasks[0].TagIDs())
	assert.Equal(t, []int64{tags[0].ID, tags[1].ID}, tasks[1].TagIDs())
	assert.Empty(t, tasks[2].Tags)

	var forTag []models.Task
	require.NoError(t, st.View(ctx, func(tx Tx) error {
		var err error
		forTag, err = tx.ListTasksForTag(ctx, tags[0].ID)
		return err
	}))
	require.Len(t, forTag, 2)
	assert.Equal(t, []int64{tags[0].ID, tags[1].ID}, forTag[1].TagIDs())
}

func TestSQLite_UpdateTaskAndTag(t *testing.T) {
	st := setupTestStore(t)
	task := mustCreateTask(t, st, "old")
	tags := mustInsertTags(t, st, "first", "second")
	ctx := context.Background()

	task.Name, task.Description, task.Done = "new", "details", true
	require.NoError(t, st.Update(ctx, func(tx Tx) error { return tx.UpdateTask(ctx, &task) }))
	got := getTask(t, st, task.ID)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, "details", got.Description)
	assert.True(t, got.Done)

	rename := tags[0]
	rename.Name = "SECOND"
	err := st.Update(ctx, func(tx Tx) error { return tx.UpdateTag(ctx, &rename) })
	assert.True(t, apperrors.Is(err, apperrors.Duplicate))

	missing := models.Task{ID: 999, Name: "ghost"}
	err = st.Update(ctx, func(tx Tx) error { return tx.UpdateTask(ctx, &missing) })
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestSQLite_MissingTags(t *testing.T) {
	st := setupTestStore(t)
	tags := mustInsertTags(t, st, "only")

	var out []int64
	require.NoError(t, st.View(context.Background(), func(tx Tx) error {
		var err error
		out, err = tx.MissingTags(context.Background(), []int64{77, tags[0].ID, 77, 78})
		return err
	}))
	assert.Equal(t, []int64{77, 78}, out)
}

func TestOpenSQLite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "todo.db")
	st, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	task := mustCreateTask(t, st, "persisted")
	require.NoError(t, st.Close(context.Background()))

	reopened, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer reopened.Close(context.Background())
	assert.Equal(t, "persisted", getTask(t, reopened, task.ID).Name)
}

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"todo-tags/app/apperrors"
	"todo-tags/app/models"
)

//go:embed schema.sql
var schema string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore is a Store backed by a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := "file::memory:?_pragma=foreign_keys(1)"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps :memory: databases
	// alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, fn)
}

// View implements Store.
func (s *SQLiteStore) View(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, fn)
}

func (s *SQLiteStore) run(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sqliteErr("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return sqliteErr("commit transaction", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func sqliteErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch code := se.Code(); {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return apperrors.Wrap(apperrors.Duplicate, op, err)
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE"):
			return apperrors.Wrap(apperrors.Duplicate, op, err)
		}
	}
	return apperrors.Wrap(apperrors.StorageFailure, op, err)
}

type sqliteTx struct {
	tx *sql.Tx
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// =====================================================
// Task Operations
// =====================================================

const taskColumns = "id, name, description, done, created_at"

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	var createdAt int64
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Done, &createdAt); err != nil {
		return t, err
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return t, nil
}

func (s *sqliteTx) CreateTask(ctx context.Context, task *models.Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	result, err := s.tx.ExecContext(ctx,
		"INSERT INTO tasks (name, description, done, created_at) VALUES (?, ?, ?, ?)",
		task.Name, task.Description, task.Done, task.CreatedAt.Unix())
	if err != nil {
		return sqliteErr("insert task", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return sqliteErr("insert task", err)
	}
	task.ID = id
	task.Tags = []models.Tag{}
	return nil
}

func (s *sqliteTx) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	row := s.tx.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.NotFound, "task %d not found", id)
	}
	if err != nil {
		return nil, sqliteErr("get task", err)
	}
	tasks := []models.Task{t}
	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func (s *sqliteTx) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id")
}

func (s *sqliteTx) ListTasksForTag(ctx context.Context, tagID int64) ([]models.Task, error) {
	if _, err := s.GetTag(ctx, tagID); err != nil {
		return nil, err
	}
	return s.queryTasks(ctx, `
		SELECT t.id, t.name, t.description, t.done, t.created_at
		FROM tasks t
		JOIN task_tags tt ON t.id = tt.task_id
		WHERE tt.tag_id = ?
		ORDER BY t.id
	`, tagID)
}

func (s *sqliteTx) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteErr("list tasks", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, sqliteErr("scan task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("list tasks", err)
	}
	rows.Close()

	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// attachTags loads the tags of every task in one query.
func (s *sqliteTx) attachTags(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	index := make(map[int64]int, len(tasks))
	ids := make([]int64, 0, len(tasks))
	for i := range tasks {
		tasks[i].Tags = []models.Tag{}
		index[tasks[i].ID] = i
		ids = append(ids, tasks[i].ID)
	}

	rows, err := s.tx.QueryContext(ctx, `
		SELECT tt.task_id, g.id, g.name, g.color
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id IN (`+placeholders(len(ids))+`)
		ORDER BY tt.task_id, g.id
	`, int64Args(ids)...)
	if err != nil {
		return sqliteErr("load task tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var tag models.Tag
		if err := rows.Scan(&taskID, &tag.ID, &tag.Name, &tag.Color); err != nil {
			return sqliteErr("scan task tag", err)
		}
		i := index[taskID]
		tasks[i].Tags = append(tasks[i].Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return sqliteErr("load task tags", err)
	}
	return nil
}

func (s *sqliteTx) UpdateTask(ctx context.Context, task *models.Task) error {
	result, err := s.tx.ExecContext(ctx,
		"UPDATE tasks SET name = ?, description = ?, done = ? WHERE id = ?",
		task.Name, task.Description, task.Done, task.ID)
	if err != nil {
		return sqliteErr("update task", err)
	}
	return expectRow(result, "task", task.ID)
}

func (s *sqliteTx) DeleteTask(ctx context.Context, id int64) error {
	if _, err := s.tx.ExecContext(ctx, "DELETE FROM task_tags WHERE task_id = ?", id); err != nil {
		return sqliteErr("delete task associations", err)
	}
	result, err := s.tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return sqliteErr("delete task", err)
	}
	return expectRow(result, "task", id)
}

func expectRow(result sql.Result, kind string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return sqliteErr("rows affected", err)
	}
	if n == 0 {
		return apperrors.Newf(apperrors.NotFound, "%s %d not found", kind, id)
	}
	return nil
}

// =====================================================
// Tag Operations
// =====================================================

func (s *sqliteTx) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	var tag models.Tag
	err := s.tx.QueryRowContext(ctx, "SELECT id, name, color FROM tags WHERE id = ?", id).
		Scan(&tag.ID, &tag.Name, &tag.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.NotFound, "tag %d not found", id)
	}
	if err != nil {
		return nil, sqliteErr("get tag", err)
	}
	return &tag, nil
}

func (s *sqliteTx) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.queryTags(ctx, "SELECT id, name, color FROM tags ORDER BY name_key, id")
}

func (s *sqliteTx) FindTagsByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}
	keys := make([]any, 0, len(names))
	for _, name := range names {
		keys = append(keys, models.NameKey(name))
	}
	return s.queryTags(ctx,
		"SELECT id, name, color FROM tags WHERE name_key IN ("+placeholders(len(keys))+") ORDER BY id",
		keys...)
}

func (s *sqliteTx) queryTags(ctx context.Context, query string, args ...any) ([]models.Tag, error) {
	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteErr("list tags", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color); err != nil {
			return nil, sqliteErr("scan tag", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("list tags", err)
	}
	return tags, nil
}

func (s *sqliteTx) MissingTags(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.tx.QueryContext(ctx,
		"SELECT id FROM tags WHERE id IN ("+placeholders(len(ids))+")", int64Args(ids)...)
	if err != nil {
		return nil, sqliteErr("check tags", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, sqliteErr("scan tag id", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("check tags", err)
	}
	return missing(ids, found), nil
}

// missing returns the distinct ids not present in found, in input order.
func missing(ids []int64, found map[int64]bool) []int64 {
	var out []int64
	for _, id := range ids {
		if !found[id] {
			out = append(out, id)
			found[id] = true
		}
	}
	return out
}

func (s *sqliteTx) InsertTags(ctx context.Context, tags []models.Tag) ([]models.Tag, error) {
	if len(tags) == 0 {
		return []models.Tag{}, nil
	}
	stmt, err := s.tx.PrepareContext(ctx, "INSERT INTO tags (name, name_key, color) VALUES (?, ?, ?)")
	if err != nil {
		return nil, sqliteErr("prepare tag insert", err)
	}
	defer stmt.Close()

	created := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		tag.Color = tag.DisplayColor()
		result, err := stmt.ExecContext(ctx, tag.Name, tag.Key(), tag.Color)
		if err != nil {
			return nil, sqliteErr(fmt.Sprintf("insert tag %q", tag.Name), err)
		}
		if tag.ID, err = result.LastInsertId(); err != nil {
			return nil, sqliteErr("insert tag", err)
		}
		created = append(created, tag)
	}
	return created, nil
}

func (s *sqliteTx) UpdateTag(ctx context.Context, tag *models.Tag) error {
	tag.Color = tag.DisplayColor()
	result, err := s.tx.ExecContext(ctx,
		"UPDATE tags SET name = ?, name_key = ?, color = ? WHERE id = ?",
		tag.Name, tag.Key(), tag.Color, tag.ID)
	if err != nil {
		return sqliteErr(fmt.Sprintf("update tag %q", tag.Name), err)
	}
	return expectRow(result, "tag", tag.ID)
}

func (s *sqliteTx) DeleteTag(ctx context.Context, id int64) error {
	if _, err := s.tx.ExecContext(ctx, "DELETE FROM task_tags WHERE tag_id = ?", id); err != nil {
		return sqliteErr("delete tag associations", err)
	}
	result, err := s.tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return sqliteErr("delete tag", err)
	}
	return expectRow(result, "tag", id)
}

// =====================================================
// Association Operations
// =====================================================

func (s *sqliteTx) ClearAssociations(ctx context.Context, taskID int64) error {
	if _, err := s.tx.ExecContext(ctx, "DELETE FROM task_tags WHERE task_id = ?", taskID); err != nil {
		return sqliteErr("clear associations", err)
	}
	return nil
}

func (s *sqliteTx) InsertAssociations(ctx context.Context, taskID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	stmt, err := s.tx.PrepareContext(ctx, "INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)")
	if err != nil {
		return sqliteErr("prepare association insert", err)
	}
	defer stmt.Close()

	for _, tagID := range tagIDs {
		if _, err := stmt.ExecContext(ctx, taskID, tagID); err != nil {
			return sqliteErr("insert association", err)
		}
	}
	return nil
}

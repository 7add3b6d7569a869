package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"todo-tags/app/apperrors"
	"todo-tags/app/models"
)

// Neo4jStore is a Store backed by a Neo4j graph. Tasks and tags are nodes,
// associations are (:Task)-[:TAGGED]->(:Tag) relationships. Integer ids come
// from :Sequence counter nodes incremented in the caller's transaction.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

var neo4jConstraints = []string{
	"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
	"CREATE CONSTRAINT tag_id IF NOT EXISTS FOR (g:Tag) REQUIRE g.id IS UNIQUE",
	"CREATE CONSTRAINT tag_name_key IF NOT EXISTS FOR (g:Tag) REQUIRE g.nameKey IS UNIQUE",
	"CREATE CONSTRAINT sequence_name IF NOT EXISTS FOR (s:Sequence) REQUIRE s.name IS UNIQUE",
}

// NewNeo4jStore wraps driver and ensures the uniqueness constraints exist.
// An empty database selects the server default.
func NewNeo4jStore(ctx context.Context, driver neo4j.DriverWithContext, database string) (*Neo4jStore, error) {
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}
	for _, c := range neo4jConstraints {
		if _, err := neo4j.ExecuteQuery(ctx, driver, c, nil, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(database)); err != nil {
			return nil, fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

// Update implements Store. The driver may retry fn on transient errors.
func (s *Neo4jStore) Update(ctx context.Context, fn func(Tx) error) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(&neo4jTx{tx: tx})
	})
	return neo4jErr("write transaction", err)
}

// View implements Store.
func (s *Neo4jStore) View(ctx context.Context, fn func(Tx) error) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(&neo4jTx{tx: tx})
	})
	return neo4jErr("read transaction", err)
}

// Close implements Store.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// neo4jErr passes application errors through and classifies driver errors.
func neo4jErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var ne *neo4j.Neo4jError
	if errors.As(err, &ne) && ne.Code == constraintViolation {
		return apperrors.Wrap(apperrors.Duplicate, op, err)
	}
	return apperrors.Wrap(apperrors.StorageFailure, op, err)
}

type neo4jTx struct {
	tx neo4j.ManagedTransaction
}

func (n *neo4jTx) collect(ctx context.Context, op, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := n.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, neo4jErr(op, err)
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, neo4jErr(op, err)
	}
	return records, nil
}

func (n *neo4jTx) nextID(ctx context.Context, sequence string) (int64, error) {
	records, err := n.collect(ctx, "next id",
		"MERGE (s:Sequence {name: $name}) "+
			"ON CREATE SET s.value = 0 "+
			"SET s.value = s.value + 1 "+
			"RETURN s.value AS id",
		map[string]any{"name": sequence})
	if err != nil {
		return 0, err
	}
	if len(records) != 1 {
		return 0, apperrors.Newf(apperrors.StorageFailure, "sequence %s returned %d rows", sequence, len(records))
	}
	id, _, err := neo4j.GetRecordValue[int64](records[0], "id")
	if err != nil {
		return 0, neo4jErr("next id", err)
	}
	return id, nil
}

// =====================================================
// Task Operations
// =====================================================

const taskReturn = "RETURN t.id AS id, t.name AS name, t.description AS description, " +
	"t.done AS done, t.createdAt AS createdAt, " +
	"[(t)-[:TAGGED]->(g:Tag) | g {.id, .name, .color}] AS tags"

func recordTask(record *neo4j.Record) (models.Task, error) {
	var t models.Task
	var err error
	if t.ID, _, err = neo4j.GetRecordValue[int64](record, "id"); err != nil {
		return t, err
	}
	if t.Name, _, err = neo4j.GetRecordValue[string](record, "name"); err != nil {
		return t, err
	}
	if t.Description, _, err = neo4j.GetRecordValue[string](record, "description"); err != nil {
		return t, err
	}
	if t.Done, _, err = neo4j.GetRecordValue[bool](record, "done"); err != nil {
		return t, err
	}
	createdAt, _, err := neo4j.GetRecordValue[int64](record, "createdAt")
	if err != nil {
		return t, err
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()

	raw, _, err := neo4j.GetRecordValue[[]any](record, "tags")
	if err != nil {
		return t, err
	}
	t.Tags = make([]models.Tag, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t.Tags = append(t.Tags, mapTag(m))
	}
	sortTags(t.Tags)
	return t, nil
}

func mapTag(m map[string]any) models.Tag {
	var tag models.Tag
	tag.ID, _ = m["id"].(int64)
	tag.Name, _ = m["name"].(string)
	tag.Color, _ = m["color"].(string)
	return tag
}

// sortTags orders tags by id, matching the SQLite backend.
func sortTags(tags []models.Tag) {
	slices.SortFunc(tags, func(a, b models.Tag) int { return cmp.Compare(a.ID, b.ID) })
}

func (n *neo4jTx) queryTasks(ctx context.Context, op, cypher string, params map[string]any) ([]models.Task, error) {
	records, err := n.collect(ctx, op, cypher, params)
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(records))
	for _, record := range records {
		t, err := recordTask(record)
		if err != nil {
			return nil, neo4jErr(op, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (n *neo4jTx) CreateTask(ctx context.Context, task *models.Task) error {
	id, err := n.nextID(ctx, "task")
	if err != nil {
		return err
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err = n.collect(ctx, "create task",
		"CREATE (t:Task {id: $id, name: $name, description: $description, done: $done, createdAt: $createdAt})",
		map[string]any{
			"id":          id,
			"name":        task.Name,
			"description": task.Description,
			"done":        task.Done,
			"createdAt":   task.CreatedAt.Unix(),
		})
	if err != nil {
		return err
	}
	task.ID = id
	task.Tags = []models.Tag{}
	return nil
}

func (n *neo4jTx) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	tasks, err := n.queryTasks(ctx, "get task", "MATCH (t:Task {id: $id}) "+taskReturn, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, apperrors.Newf(apperrors.NotFound, "task %d not found", id)
	}
	return &tasks[0], nil
}

func (n *neo4jTx) ListTasks(ctx context.Context) ([]models.Task, error) {
	return n.queryTasks(ctx, "list tasks", "MATCH (t:Task) "+taskReturn+" ORDER BY id", nil)
}

func (n *neo4jTx) ListTasksForTag(ctx context.Context, tagID int64) ([]models.Task, error) {
	if _, err := n.GetTag(ctx, tagID); err != nil {
		return nil, err
	}
	return n.queryTasks(ctx, "list tasks for tag",
		"MATCH (t:Task)-[:TAGGED]->(:Tag {id: $tagId}) "+taskReturn+" ORDER BY id",
		map[string]any{"tagId": tagID})
}

func (n *neo4jTx) UpdateTask(ctx context.Context, task *models.Task) error {
	records, err := n.collect(ctx, "update task",
		"MATCH (t:Task {id: $id}) "+
			"SET t.name = $name, t.description = $description, t.done = $done "+
			"RETURN t.id AS id",
		map[string]any{
			"id":          task.ID,
			"name":        task.Name,
			"description": task.Description,
			"done":        task.Done,
		})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return apperrors.Newf(apperrors.NotFound, "task %d not found", task.ID)
	}
	return nil
}

func (n *neo4jTx) DeleteTask(ctx context.Context, id int64) error {
	records, err := n.collect(ctx, "delete task",
		"MATCH (t:Task {id: $id}) DETACH DELETE t RETURN count(*) AS deleted",
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	return expectDeleted(records, "task", id)
}

func expectDeleted(records []*neo4j.Record, kind string, id int64) error {
	var deleted int64
	if len(records) == 1 {
		deleted, _, _ = neo4j.GetRecordValue[int64](records[0], "deleted")
	}
	if deleted == 0 {
		return apperrors.Newf(apperrors.NotFound, "%s %d not found", kind, id)
	}
	return nil
}

// =====================================================
// Tag Operations
// =====================================================

const tagReturn = "RETURN g.id AS id, g.name AS name, g.color AS color"

func recordTag(record *neo4j.Record) (models.Tag, error) {
	var tag models.Tag
	var err error
	if tag.ID, _, err = neo4j.GetRecordValue[int64](record, "id"); err != nil {
		return tag, err
	}
	if tag.Name, _, err = neo4j.GetRecordValue[string](record, "name"); err != nil {
		return tag, err
	}
	if tag.Color, _, err = neo4j.GetRecordValue[string](record, "color"); err != nil {
		return tag, err
	}
	return tag, nil
}

func (n *neo4jTx) queryTags(ctx context.Context, op, cypher string, params map[string]any) ([]models.Tag, error) {
	records, err := n.collect(ctx, op, cypher, params)
	if err != nil {
		return nil, err
	}
	tags := make([]models.Tag, 0, len(records))
	for _, record := range records {
		tag, err := recordTag(record)
		if err != nil {
			return nil, neo4jErr(op, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (n *neo4jTx) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	tags, err := n.queryTags(ctx, "get tag", "MATCH (g:Tag {id: $id}) "+tagReturn, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, apperrors.Newf(apperrors.NotFound, "tag %d not found", id)
	}
	return &tags[0], nil
}

func (n *neo4jTx) ListTags(ctx context.Context) ([]models.Tag, error) {
	return n.queryTags(ctx, "list tags", "MATCH (g:Tag) "+tagReturn+" ORDER BY g.nameKey, id", nil)
}

func (n *neo4jTx) FindTagsByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}
	keys := make([]any, 0, len(names))
	for _, name := range names {
		keys = append(keys, models.NameKey(name))
	}
	return n.queryTags(ctx, "find tags",
		"MATCH (g:Tag) WHERE g.nameKey IN $keys "+tagReturn+" ORDER BY id",
		map[string]any{"keys": keys})
}

func (n *neo4jTx) MissingTags(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := n.collect(ctx, "check tags",
		"MATCH (g:Tag) WHERE g.id IN $ids RETURN g.id AS id",
		map[string]any{"ids": int64Args(ids)})
	if err != nil {
		return nil, err
	}
	found := make(map[int64]bool, len(records))
	for _, record := range records {
		id, _, err := neo4j.GetRecordValue[int64](record, "id")
		if err != nil {
			return nil, neo4jErr("check tags", err)
		}
		found[id] = true
	}
	return missing(ids, found), nil
}

func (n *neo4jTx) InsertTags(ctx context.Context, tags []models.Tag) ([]models.Tag, error) {
	created := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		id, err := n.nextID(ctx, "tag")
		if err != nil {
			return nil, err
		}
		tag.ID = id
		tag.Color = tag.DisplayColor()
		_, err = n.collect(ctx, fmt.Sprintf("insert tag %q", tag.Name),
			"CREATE (g:Tag {id: $id, name: $name, nameKey: $nameKey, color: $color})",
			map[string]any{"id": tag.ID, "name": tag.Name, "nameKey": tag.Key(), "color": tag.Color})
		if err != nil {
			return nil, err
		}
		created = append(created, tag)
	}
	return created, nil
}

func (n *neo4jTx) UpdateTag(ctx context.Context, tag *models.Tag) error {
	tag.Color = tag.DisplayColor()
	records, err := n.collect(ctx, fmt.Sprintf("update tag %q", tag.Name),
		"MATCH (g:Tag {id: $id}) SET g.name = $name, g.nameKey = $nameKey, g.color = $color RETURN g.id AS id",
		map[string]any{"id": tag.ID, "name": tag.Name, "nameKey": tag.Key(), "color": tag.Color})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return apperrors.Newf(apperrors.NotFound, "tag %d not found", tag.ID)
	}
	return nil
}

func (n *neo4jTx) DeleteTag(ctx context.Context, id int64) error {
	records, err := n.collect(ctx, "delete tag",
		"MATCH (g:Tag {id: $id}) DETACH DELETE g RETURN count(*) AS deleted",
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	return expectDeleted(records, "tag", id)
}

// =====================================================
// Association Operations
// =====================================================

func (n *neo4jTx) ClearAssociations(ctx context.Context, taskID int64) error {
	_, err := n.collect(ctx, "clear associations",
		"MATCH (:Task {id: $taskId})-[r:TAGGED]->(:Tag) DELETE r",
		map[string]any{"taskId": taskID})
	return err
}

func (n *neo4jTx) InsertAssociations(ctx context.Context, taskID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := n.collect(ctx, "insert associations",
		"MATCH (t:Task {id: $taskId}) "+
			"UNWIND $tagIds AS tagId "+
			"MATCH (g:Tag {id: tagId}) "+
			"MERGE (t)-[:TAGGED]->(g)",
		map[string]any{"taskId": taskID, "tagIds": int64Args(tagIDs)})
	return err
}

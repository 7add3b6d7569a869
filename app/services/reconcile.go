package services

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"todo-tags/app/apperrors"
	"todo-tags/app/colors"
	"todo-tags/app/models"
	"todo-tags/app/store"
)

// ParseTagString splits raw on spaces, trims each token and drops empty ones.
// Names that differ only in case collapse to the first spelling seen. A token
// may still hold inner whitespace such as a tab; Reconcile rejects those.
func ParseTagString(raw string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, token := range strings.Split(raw, " ") {
		name := strings.TrimSpace(token)
		if name == "" {
			continue
		}
		key := models.NameKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// Reconciler resolves tag names to stored tags, creating the missing ones.
type Reconciler struct {
	colors colors.Assigner
	log    *log.Logger
}

// NewReconciler creates a Reconciler that colors new tags with assigner.
func NewReconciler(assigner colors.Assigner, logger *log.Logger) *Reconciler {
	return &Reconciler{colors: assigner, log: logger}
}

// Reconcile returns exactly one tag per distinct case-insensitive name in
// raw: tags that already existed first, then the ones it created, each group
// in the order the names appeared. It must run inside the caller's
// transaction so that a failure leaves no new tags behind.
func (r *Reconciler) Reconcile(ctx context.Context, tx store.Tx, raw string) ([]models.Tag, error) {
	names := ParseTagString(raw)
	for _, name := range names {
		if err := validateTagName(name); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		return []models.Tag{}, nil
	}

	found, err := tx.FindTagsByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]models.Tag, len(found))
	for _, tag := range found {
		if _, ok := byKey[tag.Key()]; !ok {
			byKey[tag.Key()] = tag
		}
	}

	resolved := make([]models.Tag, 0, len(names))
	var missing []models.Tag
	for _, name := range names {
		if tag, ok := byKey[models.NameKey(name)]; ok {
			resolved = append(resolved, tag)
			continue
		}
		missing = append(missing, models.Tag{Name: name, Color: r.colors.Assign(name)})
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	created, err := tx.InsertTags(ctx, missing)
	if apperrors.Is(err, apperrors.Duplicate) {
		// Another writer created one of the names after our lookup.
		return nil, apperrors.Wrap(apperrors.StorageFailure, "tag created concurrently", err)
	}
	if err != nil {
		return nil, err
	}
	r.log.Debug("created tags", "names", tagNames(created))
	return append(resolved, created...), nil
}

// ReplaceAssociations makes tagIDs the complete tag set of taskID and
// returns the distinct ids it stored. The task must exist.
func ReplaceAssociations(ctx context.Context, tx store.Tx, taskID int64, tagIDs []int64) ([]int64, error) {
	if _, err := tx.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return replaceAssociations(ctx, tx, taskID, tagIDs)
}

func replaceAssociations(ctx context.Context, tx store.Tx, taskID int64, tagIDs []int64) ([]int64, error) {
	ids := dedupeIDs(tagIDs)
	if err := tx.ClearAssociations(ctx, taskID); err != nil {
		return nil, err
	}
	if err := tx.InsertAssociations(ctx, taskID, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// dedupeIDs drops repeated ids, keeping first occurrences in order.
func dedupeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func tagIDs(tags []models.Tag) []int64 {
	ids := make([]int64, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}

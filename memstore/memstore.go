// Package memstore is an in-memory collection backend. It follows the same
// ordering and range rules as the database backends and is used by tests and
// by the memory demo mode.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string][]collection.Record
	now         func() time.Time
}

func New() *Store {

	return &Store{
		collections: map[string][]collection.Record{},
		now:         time.Now,
	}
}

// Insert stores a copy of rec. A missing id gets a generated one and a
// missing created_at is stamped with the current time.
func (s *Store) Insert(collectionName string, rec collection.Record) (collection.Record, error) {

	if !collection.ValidIdentifier(collectionName) {
		return nil, errors.CollectionInvalidError.New(collectionName)
	}

	stored := maps.Clone(rec)
	if stored == nil {
		stored = collection.Record{}
	}

	id, _ := stored[collection.IDField].(string)
	if id == "" {
		id = uuid.NewString()
		stored[collection.IDField] = id
	}

	if _, ok := stored[collection.CreatedAtField]; !ok {
		stored[collection.CreatedAtField] = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(collectionName, id) >= 0 {
		return nil, errors.DuplicatedObjectIDError.New(id)
	}

	s.collections[collectionName] = append(s.collections[collectionName], stored)

	return maps.Clone(stored), nil
}

func (s *Store) Get(collectionName, id string) (collection.Record, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(collectionName, id)
	if i < 0 {
		return nil, errors.ObjectIDNotFoundError.New(id)
	}

	return maps.Clone(s.collections[collectionName][i]), nil
}

// Update sets fields on a stored record. id and created_at are kept.
func (s *Store) Update(collectionName, id string, fields collection.Record) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(collectionName, id)
	if i < 0 {
		return errors.ObjectIDNotFoundError.New(id)
	}

	updated := maps.Clone(s.collections[collectionName][i])
	for key, value := range fields {
		if key == collection.IDField || key == collection.CreatedAtField {
			continue
		}

		updated[key] = value
	}

	s.collections[collectionName][i] = updated

	return nil
}

func (s *Store) Delete(_ context.Context, collectionName, id string) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(collectionName, id)
	if i < 0 {
		return errors.ObjectIDNotFoundError.New(id)
	}

	s.collections[collectionName] = slices.Delete(s.collections[collectionName], i, i+1)

	return nil
}

func (s *Store) Len(collectionName string) int {

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.collections[collectionName])
}

func (s *Store) Query(ctx context.Context, req collection.Request) (collection.Page, error) {

	if err := ctx.Err(); err != nil {
		return collection.Page{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []collection.Record
	for _, rec := range s.collections[req.Collection] {
		if !req.Filtered() || req.MatchType.Match(stringValue(rec[req.SearchField]), req.SearchTerm) {
			matched = append(matched, rec)
		}
	}

	slices.SortStableFunc(matched, compareNewestFirst)

	rows := []collection.Record{}
	for i := req.From; i <= req.To && i < len(matched); i++ {
		if i < 0 {
			continue
		}

		rows = append(rows, s.projectLocked(matched[i], req.Projection))
	}

	return collection.Page{Rows: rows, Count: len(matched)}, nil
}

func (s *Store) projectLocked(rec collection.Record, p collection.Projection) collection.Record {

	out := collection.Record{}
	if p.All {
		maps.Copy(out, rec)
	}

	for _, field := range p.Fields {
		if value, ok := rec[field]; ok {
			out[field] = value
		}
	}

	for _, rel := range p.Relations {

		foreignID := stringValue(rec[rel.LocalKey])
		i := s.indexLocked(rel.Collection, foreignID)
		if foreignID == "" || i < 0 {
			out[rel.Alias] = nil
			continue
		}

		foreign := s.collections[rel.Collection][i]
		if rel.AllFields() {
			out[rel.Alias] = maps.Clone(foreign)
			continue
		}

		joined := collection.Record{}
		for _, field := range rel.Fields {
			if value, ok := foreign[field]; ok {
				joined[field] = value
			}
		}

		out[rel.Alias] = joined
	}

	return out
}

func (s *Store) indexLocked(collectionName, id string) int {

	return slices.IndexFunc(s.collections[collectionName], func(rec collection.Record) bool {
		return stringValue(rec[collection.IDField]) == id
	})
}

func compareNewestFirst(a, b collection.Record) int {

	if c := createdAt(b).Compare(createdAt(a)); c != 0 {
		return c
	}

	return strings.Compare(stringValue(b[collection.IDField]), stringValue(a[collection.IDField]))
}

func createdAt(rec collection.Record) time.Time {

	switch v := rec[collection.CreatedAtField].(type) {
	case time.Time:
		return v
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return parsed
		}
	}

	return time.Time{}
}

func stringValue(value any) string {

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

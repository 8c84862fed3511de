package testsupport

import (
	"context"
	"database/sql"
	"sync"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Record is the minimal shape StubRepo needs to index its rows.
type Record interface {
	RecordID() string
}

var _ repository.Repository[*Task] = (*StubRepo[*Task])(nil)

// StubRepo is an in-memory repository.Repository implementation shared by
// the module's tests and examples. It ignores query criteria (scoping
// semantics at the SQL level are covered by the scope package tests) and
// records which methods were called so tests can distinguish cache hits from
// miss-path store reads.
type StubRepo[T Record] struct {
	mu      sync.Mutex
	records map[string]T
	order   []string
	calls   []string

	// Err, when set, is returned by every operation.
	Err error
}

// NewStubRepo creates an empty stub repository.
func NewStubRepo[T Record]() *StubRepo[T] {
	return &StubRepo[T]{records: map[string]T{}}
}

// Calls returns the recorded method names in call order.
func (s *StubRepo[T]) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns how many times the named method was called.
func (s *StubRepo[T]) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, call := range s.calls {
		if call == method {
			n++
		}
	}
	return n
}

// ResetCalls clears the recorded call log.
func (s *StubRepo[T]) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Seed inserts records without recording calls.
func (s *StubRepo[T]) Seed(records ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.insert(r)
	}
}

func (s *StubRepo[T]) insert(r T) {
	id := r.RecordID()
	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.records[id] = r
}

func (s *StubRepo[T]) record(method string) {
	s.calls = append(s.calls, method)
}

func (s *StubRepo[T]) all() []T {
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// --- read operations ---

func (s *StubRepo[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Get")

	var zero T
	if s.Err != nil {
		return zero, s.Err
	}
	for _, id := range s.order {
		return s.records[id], nil
	}
	return zero, sql.ErrNoRows
}

func (s *StubRepo[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GetByID")

	var zero T
	if s.Err != nil {
		return zero, s.Err
	}
	if r, ok := s.records[id]; ok {
		return r, nil
	}
	return zero, sql.ErrNoRows
}

func (s *StubRepo[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return s.GetByID(ctx, identifier, criteria...)
}

func (s *StubRepo[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("List")

	if s.Err != nil {
		return nil, 0, s.Err
	}
	records := s.all()
	return records, len(records), nil
}

func (s *StubRepo[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Count")

	if s.Err != nil {
		return 0, s.Err
	}
	return len(s.records), nil
}

// --- write operations ---

func (s *StubRepo[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Create")

	var zero T
	if s.Err != nil {
		return zero, s.Err
	}
	s.insert(record)
	return record, nil
}

func (s *StubRepo[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Update")

	var zero T
	if s.Err != nil {
		return zero, s.Err
	}
	if _, ok := s.records[record.RecordID()]; !ok {
		return zero, sql.ErrNoRows
	}
	s.insert(record)
	return record, nil
}

func (s *StubRepo[T]) Delete(ctx context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Delete")

	if s.Err != nil {
		return s.Err
	}
	id := record.RecordID()
	if _, ok := s.records[id]; ok {
		delete(s.records, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (s *StubRepo[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	s.mu.Lock()
	existing, ok := s.records[record.RecordID()]
	s.mu.Unlock()
	if ok {
		return existing, nil
	}
	return s.Create(ctx, record)
}

func (s *StubRepo[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		created, err := s.Create(ctx, r, criteria...)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (s *StubRepo[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		updated, err := s.Update(ctx, r, criteria...)
		if err != nil {
			return nil, err
		}
		out = append(out, updated)
	}
	return out, nil
}

func (s *StubRepo[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Upsert")

	var zero T
	if s.Err != nil {
		return zero, s.Err
	}
	s.insert(record)
	return record, nil
}

func (s *StubRepo[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		upserted, err := s.Upsert(ctx, r, criteria...)
		if err != nil {
			return nil, err
		}
		out = append(out, upserted)
	}
	return out, nil
}

func (s *StubRepo[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("DeleteMany")

	if s.Err != nil {
		return s.Err
	}
	s.records = map[string]T{}
	s.order = nil
	return nil
}

func (s *StubRepo[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	return s.DeleteMany(ctx, criteria...)
}

func (s *StubRepo[T]) ForceDelete(ctx context.Context, record T) error {
	return s.Delete(ctx, record)
}

// --- transactional variants delegate to their plain counterparts ---

func (s *StubRepo[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return s.Get(ctx, criteria...)
}

func (s *StubRepo[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return s.GetByID(ctx, id, criteria...)
}

func (s *StubRepo[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return s.GetByIdentifier(ctx, identifier, criteria...)
}

func (s *StubRepo[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return s.List(ctx, criteria...)
}

func (s *StubRepo[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return s.Count(ctx, criteria...)
}

func (s *StubRepo[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	return s.Create(ctx, record, criteria...)
}

func (s *StubRepo[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	return s.CreateMany(ctx, records, criteria...)
}

func (s *StubRepo[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	return s.GetOrCreate(ctx, record)
}

func (s *StubRepo[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	return s.Update(ctx, record, criteria...)
}

func (s *StubRepo[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	return s.UpdateMany(ctx, records, criteria...)
}

func (s *StubRepo[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	return s.Upsert(ctx, record, criteria...)
}

func (s *StubRepo[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	return s.UpsertMany(ctx, records, criteria...)
}

func (s *StubRepo[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	return s.Delete(ctx, record)
}

func (s *StubRepo[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return s.DeleteMany(ctx, criteria...)
}

func (s *StubRepo[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return s.DeleteWhere(ctx, criteria...)
}

func (s *StubRepo[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	return s.ForceDelete(ctx, record)
}

func (s *StubRepo[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Raw")
	return s.all(), nil
}

func (s *StubRepo[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return s.Raw(ctx, sql, args...)
}

func (s *StubRepo[T]) Handlers() repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{}
}

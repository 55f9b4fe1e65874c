package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/loopystack/Portal/internal/infra"
)

// fakeDB is a scripted infra.TxRunner keyed by query constant.
type fakeDB struct {
	calls     []string
	args      map[string][]any
	row       map[string]func(args []any) pgx.Row
	rows      map[string]func(args []any) (pgx.Rows, error)
	exec      map[string]func(args []any) (pgconn.CommandTag, error)
	commits   int
	rollbacks int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		args: map[string][]any{},
		row:  map[string]func([]any) pgx.Row{},
		rows: map[string]func([]any) (pgx.Rows, error){},
		exec: map[string]func([]any) (pgconn.CommandTag, error){},
	}
}

func (f *fakeDB) record(query string, args []any) {
	f.calls = append(f.calls, query)
	f.args[query] = args
}

func (f *fakeDB) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.record(query, args)
	if fn, ok := f.exec[query]; ok {
		return fn(args)
	}
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.record(query, args)
	if fn, ok := f.row[query]; ok {
		return fn(args)
	}
	return fakeRow{err: fmt.Errorf("unexpected query_row")}
}

func (f *fakeDB) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.record(query, args)
	if fn, ok := f.rows[query]; ok {
		return fn(args)
	}
	return nil, fmt.Errorf("unexpected query")
}

func (f *fakeDB) InTx(_ context.Context, _ pgx.TxOptions, fn func(q infra.SQLExecutor) error) error {
	if err := fn(f); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func (f *fakeDB) called(query string) bool {
	for _, c := range f.calls {
		if c == query {
			return true
		}
	}
	return false
}

var _ infra.TxRunner = (*fakeDB)(nil)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

func assign(dest []any, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d dest for %d values", len(dest), len(vals))
	}
	for i := range dest {
		target := reflect.ValueOf(dest[i]).Elem()
		v := reflect.ValueOf(vals[i])
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d: %s not assignable to %s", i, v.Type(), target.Type())
		}
		target.Set(v)
	}
	return nil
}

type fakeRows struct {
	data [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, fmt.Errorf("not supported") }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.idx-1])
}

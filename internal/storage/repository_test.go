package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/skycast/internal/favorites"
	"github.com/neexbeast/skycast/internal/storage"
)

// ---- mock Querier ----

type mockQuerier struct {
	queryFn func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	beginFn func(ctx context.Context) (pgx.Tx, error)
	pingErr error
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFn(ctx, sql, args...)
}
func (m *mockQuerier) Begin(ctx context.Context) (pgx.Tx, error) { return m.beginFn(ctx) }
func (m *mockQuerier) Ping(_ context.Context) error              { return m.pingErr }

// ---- mock pgx.Rows ----

type fakeRows struct {
	rows    [][]any
	idx     int
	rowErr  error
	scanErr error
}

func (f *fakeRows) Next() bool                                   { f.idx++; return f.idx <= len(f.rows) }
func (f *fakeRows) Err() error                                   { return f.rowErr }
func (f *fakeRows) Close()                                       {}
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	row := f.rows[f.idx-1]
	for i, d := range dest {
		if i >= len(row) {
			break
		}
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		case *float64:
			*v = row[i].(float64)
		}
	}
	return nil
}

// ---- mock MigrationPool ----

type mockMigrationPool struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockMigrationPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.beginFn(ctx)
}

// mockTx is a minimal pgx.Tx implementation that records executed statements.
type mockTx struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (t *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.execFn(ctx, sql, args...)
}
func (t *mockTx) Commit(ctx context.Context) error   { return t.commitFn(ctx) }
func (t *mockTx) Rollback(ctx context.Context) error { return t.rollbackFn(ctx) }

// pgx.Tx has many more methods; stub them all out.
func (t *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (t *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *mockTx) Conn() *pgx.Conn { return nil }

type txRecorder struct {
	execs      [][]any
	committed  bool
	rolledBack bool
	failOn     int
}

func (r *txRecorder) tx() *mockTx {
	return &mockTx{
		execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			r.execs = append(r.execs, append([]any{sql}, args...))
			if r.failOn > 0 && len(r.execs) == r.failOn {
				return pgconn.CommandTag{}, fmt.Errorf("exec failed")
			}
			return pgconn.CommandTag{}, nil
		},
		commitFn:   func(_ context.Context) error { r.committed = true; return nil },
		rollbackFn: func(_ context.Context) error { r.rolledBack = true; return nil },
	}
}

var (
	paris = favorites.City{Name: "Paris", Country: "FR", Lat: 48.85, Lon: 2.35}
	oslo  = favorites.City{Name: "Oslo", Country: "NO", Lat: 59.91, Lon: 10.75}
)

// ---- Load tests ----

func TestLoad_Found(t *testing.T) {
	rows := &fakeRows{
		rows: [][]any{
			{"Oslo", "NO", 59.91, 10.75},
			{"Paris", "FR", 48.85, 2.35},
		},
	}
	q := &mockQuerier{
		queryFn: func(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
			assert.Contains(t, sql, "ORDER BY position")
			return rows, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	cities, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []favorites.City{oslo, paris}, cities)
}

func TestLoad_Empty(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return &fakeRows{}, nil },
	}

	cities, err := storage.NewRepositoryWithQuerier(q).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cities)
	assert.Empty(t, cities)
}

func TestLoad_QueryError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return nil, fmt.Errorf("query failed")
		},
	}

	_, err := storage.NewRepositoryWithQuerier(q).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying favorites")
}

func TestLoad_ScanError(t *testing.T) {
	rows := &fakeRows{
		rows:    [][]any{{"Paris", "FR", 48.85, 2.35}},
		scanErr: fmt.Errorf("scan failed"),
	}
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	_, err := storage.NewRepositoryWithQuerier(q).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning")
}

func TestLoad_RowsErr(t *testing.T) {
	rows := &fakeRows{rowErr: fmt.Errorf("rows iteration error")}
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	_, err := storage.NewRepositoryWithQuerier(q).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterating")
}

// ---- Save tests ----

func TestSave_ReplacesInOrder(t *testing.T) {
	rec := &txRecorder{}
	q := &mockQuerier{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return rec.tx(), nil },
	}

	err := storage.NewRepositoryWithQuerier(q).Save(context.Background(), []favorites.City{oslo, paris})
	require.NoError(t, err)

	require.Len(t, rec.execs, 3)
	assert.Contains(t, rec.execs[0][0], "DELETE FROM favorites")
	assert.Equal(t, []any{"Oslo", "NO", 59.91, 10.75, 0}, rec.execs[1][1:])
	assert.Equal(t, []any{"Paris", "FR", 48.85, 2.35, 1}, rec.execs[2][1:])
	assert.True(t, rec.committed)
	assert.False(t, rec.rolledBack)
}

func TestSave_EmptyListClearsTable(t *testing.T) {
	rec := &txRecorder{}
	q := &mockQuerier{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return rec.tx(), nil },
	}

	require.NoError(t, storage.NewRepositoryWithQuerier(q).Save(context.Background(), nil))
	require.Len(t, rec.execs, 1)
	assert.True(t, rec.committed)
}

func TestSave_InsertErrorRollsBack(t *testing.T) {
	rec := &txRecorder{failOn: 3}
	q := &mockQuerier{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return rec.tx(), nil },
	}

	err := storage.NewRepositoryWithQuerier(q).Save(context.Background(), []favorites.City{oslo, paris})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Paris-FR")
	assert.True(t, rec.rolledBack)
	assert.False(t, rec.committed)
}

func TestSave_DeleteErrorRollsBack(t *testing.T) {
	rec := &txRecorder{failOn: 1}
	q := &mockQuerier{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return rec.tx(), nil },
	}

	err := storage.NewRepositoryWithQuerier(q).Save(context.Background(), []favorites.City{oslo})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clearing favorites")
	assert.True(t, rec.rolledBack)
}

func TestSave_BeginError(t *testing.T) {
	q := &mockQuerier{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return nil, fmt.Errorf("pool exhausted") },
	}

	err := storage.NewRepositoryWithQuerier(q).Save(context.Background(), []favorites.City{oslo})
	require.Error(t, err)
}

func TestRepository_WithStore(t *testing.T) {
	rec := &txRecorder{}
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return &fakeRows{rows: [][]any{{"Oslo", "NO", 59.91, 10.75}}}, nil
		},
		beginFn: func(_ context.Context) (pgx.Tx, error) { return rec.tx(), nil },
	}

	s := favorites.NewStore(storage.NewRepositoryWithQuerier(q))
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.Add(context.Background(), paris))

	assert.Equal(t, []favorites.City{oslo, paris}, s.List())
	assert.True(t, rec.committed)
}

func TestRepository_Ping(t *testing.T) {
	assert.NoError(t, storage.NewRepositoryWithQuerier(&mockQuerier{}).Ping(context.Background()))
	assert.Error(t, storage.NewRepositoryWithQuerier(&mockQuerier{pingErr: fmt.Errorf("down")}).Ping(context.Background()))
}

func TestNewRepository_NotNil(t *testing.T) {
	repo := storage.NewRepository(nil)
	assert.NotNil(t, repo)
}

// ---- RunMigrations tests ----

func okTx(order *[]string) *mockTx {
	return &mockTx{
		execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			if order != nil {
				*order = append(*order, sql)
			}
			return pgconn.CommandTag{}, nil
		},
		commitFn:   func(_ context.Context) error { return nil },
		rollbackFn: func(_ context.Context) error { return nil },
	}
}

func TestRunMigrations_MissingDir(t *testing.T) {
	_, err := storage.RunMigrations(context.Background(), nil, os.DirFS("/nonexistent/dir"))
	require.Error(t, err)
}

func TestRunMigrations_EmptyDir(t *testing.T) {
	applied, err := storage.RunMigrations(context.Background(), nil, fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestRunMigrations_Success(t *testing.T) {
	migrations := fstest.MapFS{
		"001_create_favorites.sql": {Data: []byte("CREATE TABLE favorites ();")},
		"README.md":                {Data: []byte("ignored")},
	}
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return okTx(nil), nil },
	}

	applied, err := storage.RunMigrations(context.Background(), pool, migrations)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_favorites.sql"}, applied)
}

func TestRunMigrations_BeginError(t *testing.T) {
	migrations := fstest.MapFS{"001_test.sql": {Data: []byte("SELECT 1;")}}
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return nil, fmt.Errorf("cannot begin") },
	}

	_, err := storage.RunMigrations(context.Background(), pool, migrations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing migration")
}

func TestRunMigrations_ExecErrorStopsEarly(t *testing.T) {
	migrations := fstest.MapFS{
		"001_ok.sql":  {Data: []byte("SELECT 1;")},
		"002_bad.sql": {Data: []byte("INVALID SQL;")},
		"003_ok.sql":  {Data: []byte("SELECT 3;")},
	}
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) {
			return &mockTx{
				execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
					if sql == "INVALID SQL;" {
						return pgconn.CommandTag{}, fmt.Errorf("syntax error")
					}
					return pgconn.CommandTag{}, nil
				},
				commitFn:   func(_ context.Context) error { return nil },
				rollbackFn: func(_ context.Context) error { return nil },
			}, nil
		},
	}

	applied, err := storage.RunMigrations(context.Background(), pool, migrations)
	require.Error(t, err)
	assert.Equal(t, []string{"001_ok.sql"}, applied)
}

func TestRunMigrations_CommitError(t *testing.T) {
	migrations := fstest.MapFS{"001_test.sql": {Data: []byte("SELECT 1;")}}
	tx := okTx(nil)
	tx.commitFn = func(_ context.Context) error { return fmt.Errorf("commit failed") }
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return tx, nil },
	}

	_, err := storage.RunMigrations(context.Background(), pool, migrations)
	require.Error(t, err)
}

func TestRunMigrations_SortsFilesLexicographically(t *testing.T) {
	var order []string
	migrations := fstest.MapFS{
		"003_c.sql": {Data: []byte("SELECT 3;")},
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"002_b.sql": {Data: []byte("SELECT 2;")},
	}
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return okTx(&order), nil },
	}

	_, err := storage.RunMigrations(context.Background(), pool, migrations)
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2;", "SELECT 3;"}, order)
}

// ---- Connect tests ----

func TestConnect_BadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := storage.Connect(ctx, "postgres://invalid-host-xyz:5432/db?sslmode=disable")
	require.Error(t, err)
}

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"loccat/internal/languages"
	"loccat/internal/model"
	"loccat/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit 用内存中的文件树模拟每个提交的工作树。
type fakeGit struct {
	commits   []Commit
	trees     map[string]map[string]string
	listErr   error
	clones    int
	checkouts []string
}

var _ GitClient = &fakeGit{}

func (f *fakeGit) ListCommits(_ context.Context, _ string, limit int) ([]Commit, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > 0 && limit < len(f.commits) {
		return f.commits[:limit], nil
	}
	return f.commits, nil
}

func (f *fakeGit) Clone(_ context.Context, _ string, destination string) error {
	f.clones++
	return os.MkdirAll(destination, 0o755)
}

func (f *fakeGit) Checkout(_ context.Context, repoPath string, commit string) error {
	tree, ok := f.trees[commit]
	if !ok {
		return fmt.Errorf("unknown commit %s", commit)
	}
	f.checkouts = append(f.checkouts, commit)

	if err := os.RemoveAll(repoPath); err != nil {
		return err
	}
	if err := os.MkdirAll(repoPath, 0o755); err != nil {
		return err
	}
	for name, content := range tree {
		path := filepath.Join(repoPath, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		commits: []Commit{
			{Hash: "c3", Date: "2018-08-08 15:40:31 +0200"},
			{Hash: "c2", Date: "2018-08-07 09:00:00 +0200"},
			{Hash: "c1", Date: "2018-08-06 08:00:00 +0200"},
		},
		trees: map[string]map[string]string{
			"c3": {"CMakeLists.txt": "project(x)\n", "libs/a.cpp": "int a;\nint b;\n", "libs/tests/t.py": "x = 1\n"},
			"c2": {"CMakeLists.txt": "project(x)\n", "libs/a.cpp": "int a;\n"},
			"c1": {"libs/a.cpp": "int a;\n"},
		},
	}
}

var projectLayout = scanner.Layout{
	Subtrees:  []string{"libs"},
	RootFiles: []string{"CMakeLists.txt"},
}

func newTestRunner(git GitClient, store Store, layout scanner.Layout) *Runner {
	return NewRunner(git, scanner.NewService(languages.NewRegistry(), nil), store, layout, nil)
}

func collect(t *testing.T, runner *Runner, maxCommits int) []model.Snapshot {
	t.Helper()

	snapshots := make([]model.Snapshot, 0)
	err := runner.Run(context.Background(), "repo", maxCommits, func(snapshot model.Snapshot) error {
		snapshots = append(snapshots, snapshot)
		return nil
	})
	require.NoError(t, err)
	return snapshots
}

func newSQLiteStore(t *testing.T) *CacheStore {
	t.Helper()

	store, err := NewCacheStore(SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunStopsWhenLayoutIsMissing(t *testing.T) {
	git := newFakeGit()
	snapshots := collect(t, newTestRunner(git, nil, projectLayout), 0)

	require.Len(t, snapshots, 2)
	assert.Equal(t, "c3", snapshots[0].Commit)
	assert.Equal(t, "2018-08-08T15:40:31+0200", snapshots[0].Date)
	assert.Equal(t, int64(2), snapshots[0].Counts.Count(model.CFamily, model.Code))
	assert.Equal(t, int64(1), snapshots[0].Counts.Count(model.Script, model.Test))
	assert.Equal(t, int64(1), snapshots[0].Counts.Count(model.BuildConfig, model.Code))
	assert.Equal(t, int64(4), snapshots[0].Counts.GrandTotal())

	assert.Equal(t, "c2", snapshots[1].Commit)
	assert.Equal(t, int64(2), snapshots[1].Counts.GrandTotal())

	assert.Equal(t, 1, git.clones)
	assert.Equal(t, []string{"c3", "c2", "c1"}, git.checkouts)
}

func TestRunWholeHistoryWithDefaultLayout(t *testing.T) {
	git := newFakeGit()
	snapshots := collect(t, newTestRunner(git, nil, scanner.DefaultLayout()), 0)

	require.Len(t, snapshots, 3)
	assert.Equal(t, int64(1), snapshots[2].Counts.GrandTotal())
}

func TestRunRespectsMaxCommits(t *testing.T) {
	git := newFakeGit()
	snapshots := collect(t, newTestRunner(git, nil, projectLayout), 1)

	require.Len(t, snapshots, 1)
	assert.Equal(t, []string{"c3"}, git.checkouts)
}

func TestRunUsesCache(t *testing.T) {
	store := newSQLiteStore(t)

	first := collect(t, newTestRunner(newFakeGit(), store, projectLayout), 2)
	require.Len(t, first, 2)

	git := newFakeGit()
	second := collect(t, newTestRunner(git, store, projectLayout), 2)
	require.Len(t, second, 2)

	assert.Zero(t, git.clones)
	assert.Empty(t, git.checkouts)
	for idx := range first {
		assert.Equal(t, first[idx].Commit, second[idx].Commit)
		assert.Equal(t, first[idx].Date, second[idx].Date)
		assert.Equal(t, *first[idx].Counts, *second[idx].Counts)
	}
}

func TestRunCacheIsKeyedByLayout(t *testing.T) {
	store := newSQLiteStore(t)
	collect(t, newTestRunner(newFakeGit(), store, projectLayout), 1)

	git := newFakeGit()
	snapshots := collect(t, newTestRunner(git, store, scanner.Layout{Subtrees: []string{"libs"}}), 1)

	require.Len(t, snapshots, 1)
	assert.Equal(t, []string{"c3"}, git.checkouts)
	assert.Equal(t, int64(3), snapshots[0].Counts.GrandTotal())
}

func TestRunIgnoresStaleCacheVersion(t *testing.T) {
	store := newSQLiteStore(t)
	fingerprint, err := layoutFingerprint(projectLayout)
	require.NoError(t, err)
	require.NoError(t, store.Set("c3:"+fingerprint, []byte(`{"C++":{"Code":99}}`), cacheVersion+1, 0))

	git := newFakeGit()
	snapshots := collect(t, newTestRunner(git, store, projectLayout), 1)

	require.Len(t, snapshots, 1)
	assert.Equal(t, int64(2), snapshots[0].Counts.Count(model.CFamily, model.Code))
	assert.Equal(t, []string{"c3"}, git.checkouts)
}

func TestRunReturnsScanErrors(t *testing.T) {
	git := newFakeGit()
	git.trees["c2"]["libs/bad.cpp"] = "\xff\n"

	count := 0
	err := newTestRunner(git, nil, projectLayout).Run(context.Background(), "repo", 0, func(model.Snapshot) error {
		count++
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, languages.ErrInvalidEncoding)
	assert.Contains(t, err.Error(), "c2")
	assert.Equal(t, 1, count)
}

func TestRunReturnsEmitErrors(t *testing.T) {
	stop := errors.New("stop")
	err := newTestRunner(newFakeGit(), nil, projectLayout).Run(context.Background(), "repo", 0, func(model.Snapshot) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

func TestRunReturnsListErrors(t *testing.T) {
	git := newFakeGit()
	git.listErr = errors.New("not a git repository")

	err := newTestRunner(git, nil, projectLayout).Run(context.Background(), "repo", 0, func(model.Snapshot) error {
		return nil
	})
	assert.ErrorIs(t, err, git.listErr)
}

func TestRunCheckoutFailure(t *testing.T) {
	git := newFakeGit()
	delete(git.trees, "c3")

	err := newTestRunner(git, nil, projectLayout).Run(context.Background(), "repo", 0, func(model.Snapshot) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown commit c3")
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestRunner(newFakeGit(), nil, projectLayout).Run(ctx, "repo", 0, func(model.Snapshot) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheStoreSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	assert.Equal(t, SQLiteBackend, store.Backend())

	_, _, _, err := store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Set("key", []byte("v1"), 1, 100))
	value, version, timestamp, err := store.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(100), timestamp)

	require.NoError(t, store.Set("key", []byte("v2"), 2, 200))
	value, version, _, err = store.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
	assert.Equal(t, 2, version)
}

func TestCacheStoreNone(t *testing.T) {
	store, err := NewCacheStore(NoneBackend, "")
	require.NoError(t, err)

	require.NoError(t, store.Set("key", []byte("v"), 1, 1))
	_, _, _, err = store.Get("key")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreRejectsUnknownBackend(t *testing.T) {
	_, err := NewCacheStore(Backend("redis"), "")
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestParseBackend(t *testing.T) {
	for input, want := range map[string]Backend{
		"sqlite":     SQLiteBackend,
		"MySQL":      MySQLBackend,
		"postgresql": PostgreSQLBackend,
		" none ":     NoneBackend,
	} {
		got, err := ParseBackend(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseBackend("postgres")
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestCacheQueriesPerBackend(t *testing.T) {
	mysqlStore := &CacheStore{backend: MySQLBackend}
	assert.Contains(t, mysqlStore.upsertQuery(), "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, createTableQuery(MySQLBackend), "VARCHAR(255)")

	postgresStore := &CacheStore{backend: PostgreSQLBackend}
	assert.Contains(t, postgresStore.upsertQuery(), "ON CONFLICT (cache_key)")
	assert.Contains(t, createTableQuery(PostgreSQLBackend), "BYTEA")

	sqliteStore := &CacheStore{backend: SQLiteBackend}
	assert.Contains(t, sqliteStore.upsertQuery(), "INSERT OR REPLACE")
	assert.Contains(t, createTableQuery(SQLiteBackend), cacheTableName)
}

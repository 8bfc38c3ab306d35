package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Backend 表示快照缓存使用的数据库类型。
type Backend string

const (
	// SQLiteBackend 本地文件数据库，默认值。
	SQLiteBackend Backend = "sqlite"
	// MySQLBackend 连接串形如 user:password@tcp(host:port)/dbname。
	MySQLBackend Backend = "mysql"
	// PostgreSQLBackend 连接串形如 host=localhost port=5432 user=postgres dbname=mydb。
	PostgreSQLBackend Backend = "postgresql"
	// NoneBackend 关闭缓存。
	NoneBackend Backend = "none"
)

// ErrUnsupportedBackend 表示未知的缓存后端名称。
var ErrUnsupportedBackend = errors.New("unsupported cache backend")

// cacheTableName 是缓存表名，固定为常量，不接受外部输入。
const cacheTableName = "loccat_snapshots"

// cacheFileName 是 sqlite 缓存在用户目录下的默认文件名。
const cacheFileName = ".loccat_cache.db"

// ParseBackend 解析后端名称，大小写不敏感。
func ParseBackend(name string) (Backend, error) {
	switch backend := Backend(strings.ToLower(strings.TrimSpace(name))); backend {
	case SQLiteBackend, MySQLBackend, PostgreSQLBackend, NoneBackend:
		return backend, nil
	default:
		return "", fmt.Errorf("%w: %s. Must be sqlite, mysql, postgresql, or none", ErrUnsupportedBackend, name)
	}
}

// DefaultCachePath 返回 sqlite 缓存文件的默认路径。
func DefaultCachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cacheFileName
	}
	return filepath.Join(homeDir, cacheFileName)
}

// Store 是按键存取原始字节的持久化接口。
type Store interface {
	// Get 返回值、版本号与写入时间；不存在时返回 sql.ErrNoRows。
	Get(key string) ([]byte, int, int64, error)
	// Set 插入或覆盖一条记录。
	Set(key string, value []byte, version int, timestamp int64) error
	Close() error
}

// CacheStore 基于 database/sql 实现 Store，支持多种数据库后端。
type CacheStore struct {
	db      *sql.DB
	backend Backend
}

var _ Store = &CacheStore{}

// NewCacheStore 按后端类型打开数据库并建表。NoneBackend 返回一个不做任何事情的实现。
func NewCacheStore(backend Backend, connStr string) (*CacheStore, error) {
	var db *sql.DB
	var err error

	switch backend {
	case SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = DefaultCachePath()
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache at %q: %w", dbPath, err)
		}
		// sqlite 只允许一个连接，避免 "database is locked"。
		db.SetMaxOpenConns(1)

	case MySQLBackend:
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("open mysql cache: %w", err)
		}

	case PostgreSQLBackend:
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("open postgresql cache: %w", err)
		}

	case NoneBackend:
		return &CacheStore{backend: backend}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s cache: %w", backend, err)
	}

	if _, err := db.Exec(createTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table %s: %w", cacheTableName, err)
	}

	return &CacheStore{db: db, backend: backend}, nil
}

func createTableQuery(backend Backend) string {
	switch backend {
	case MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key VARCHAR(255) PRIMARY KEY,
				cache_value BLOB NOT NULL,
				cache_version INT NOT NULL,
				cache_timestamp BIGINT NOT NULL
			);
		`, cacheTableName)

	case PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				cache_value BYTEA NOT NULL,
				cache_version INTEGER NOT NULL,
				cache_timestamp BIGINT NOT NULL
			);
		`, cacheTableName)

	default:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				cache_value BLOB NOT NULL,
				cache_version INTEGER NOT NULL,
				cache_timestamp INTEGER NOT NULL
			);
		`, cacheTableName)
	}
}

// Get implements Store.
func (s *CacheStore) Get(key string) ([]byte, int, int64, error) {
	if s.db == nil {
		return nil, 0, 0, sql.ErrNoRows
	}

	placeholder := "?"
	if s.backend == PostgreSQLBackend {
		placeholder = "$1"
	}
	query := fmt.Sprintf(`SELECT cache_value, cache_version, cache_timestamp FROM %s WHERE cache_key = %s`, cacheTableName, placeholder)

	var value []byte
	var version int
	var timestamp int64
	if err := s.db.QueryRow(query, key).Scan(&value, &version, &timestamp); err != nil {
		return nil, 0, 0, err
	}
	return value, version, timestamp, nil
}

// Set implements Store.
func (s *CacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec(s.upsertQuery(), key, value, version, timestamp)
	return err
}

func (s *CacheStore) upsertQuery() string {
	switch s.backend {
	case MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE cache_value = new.cache_value, cache_version = new.cache_version, cache_timestamp = new.cache_timestamp`, cacheTableName)

	case PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES ($1, $2, $3, $4)
			ON CONFLICT (cache_key) DO UPDATE SET cache_value = EXCLUDED.cache_value, cache_version = EXCLUDED.cache_version, cache_timestamp = EXCLUDED.cache_timestamp`, cacheTableName)

	default:
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES (?, ?, ?, ?)`, cacheTableName)
	}
}

// Close 关闭底层连接。
func (s *CacheStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Backend 返回当前后端类型。
func (s *CacheStore) Backend() Backend {
	return s.backend
}

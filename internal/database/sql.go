package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"keygate/entity"
	"keygate/internal/config"
)

// SQL stores keys in a relational backend, MySQL or SQLite. Both dialects
// share the same schema and statements; only the connection setup differs.
type SQL struct {
	db         *sql.DB
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewMySQL(conf *config.Config) (*SQL, error) {
	if !conf.MySql.Enabled {
		return nil, fmt.Errorf("mysql is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 30-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SQL{
		db:         db,
		prefix:     conf.MySql.Prefix,
		statements: make(map[string]*sql.Stmt),
	}
	if err = sdb.createSchema(); err != nil {
		sdb.Close()
		return nil, err
	}
	return sdb, nil
}

func NewSQLite(path string) (*SQL, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	// modernc's driver executes only _pragma query parameters; other
	// underscore keys are silently ignored
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	sdb := &SQL{
		db:         db,
		statements: make(map[string]*sql.Stmt),
	}
	if err = sdb.createSchema(); err != nil {
		sdb.Close()
		return nil, err
	}
	return sdb, nil
}

func (s *SQL) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

// CreateKey persists a freshly issued key. A primary key violation on the
// value column is reported as entity.ErrKeyExists so the caller can retry
// with a new value.
func (s *SQL) CreateKey(ctx context.Context, key *entity.Key) error {
	stmt, err := s.stmtInsertKey()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		key.Value,
		key.OwnerId,
		joinScopes(key.Scopes),
		toMillis(key.CreatedAt),
		string(key.State),
		key.ConsumedBy,
		toMillis(key.ConsumedAt),
	)
	if err != nil {
		if isDuplicate(err) {
			return entity.ErrKeyExists
		}
		return fmt.Errorf("insert key: %w", err)
	}
	return nil
}

func (s *SQL) KeyByValue(ctx context.Context, value string) (*entity.Key, error) {
	stmt, err := s.stmtSelectKey()
	if err != nil {
		return nil, err
	}
	var key entity.Key
	var scopes string
	var state string
	var createdAt, consumedAt int64
	err = stmt.QueryRowContext(ctx, value).Scan(
		&key.Value,
		&key.OwnerId,
		&scopes,
		&createdAt,
		&state,
		&key.ConsumedBy,
		&consumedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select key: %w", err)
	}
	key.Scopes = splitScopes(scopes)
	key.State = entity.KeyState(state)
	key.CreatedAt = fromMillis(createdAt)
	key.ConsumedAt = fromMillis(consumedAt)
	return &key, nil
}

// RedeemKey performs the conditional transition unused -> used as a single
// UPDATE; the affected-row count is the redemption signal. Zero rows means
// the key is absent or already used, and since used is terminal the
// follow-up select is stable.
func (s *SQL) RedeemKey(ctx context.Context, value, claimant string, now time.Time) (entity.RedeemOutcome, error) {
	stmt, err := s.stmtRedeemKey()
	if err != nil {
		return "", err
	}
	res, err := stmt.ExecContext(ctx,
		string(entity.KeyUsed),
		claimant,
		toMillis(now),
		value,
		string(entity.KeyUnused),
	)
	if err != nil {
		return "", fmt.Errorf("redeem key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("redeem key affected rows: %w", err)
	}
	if affected == 1 {
		return entity.OutcomeRedeemed, nil
	}

	key, err := s.KeyByValue(ctx, value)
	if err != nil {
		return "", err
	}
	if key == nil {
		return entity.OutcomeNotFound, nil
	}
	return entity.OutcomeAlreadyUsed, nil
}

func (s *SQL) CountKeys(ctx context.Context) (entity.KeyStats, error) {
	stmt, err := s.stmtCountKeys()
	if err != nil {
		return entity.KeyStats{}, err
	}
	var stats entity.KeyStats
	err = stmt.QueryRowContext(ctx, string(entity.KeyUsed)).Scan(&stats.Issued, &stats.Redeemed)
	if err != nil {
		return entity.KeyStats{}, fmt.Errorf("count keys: %w", err)
	}
	return stats, nil
}

func (s *SQL) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// scope ids never contain commas, so a comma-joined TEXT column is enough
func joinScopes(scopes []string) string {
	return strings.Join(scopes, ",")
}

func splitScopes(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

package database

import (
	"database/sql"
	"fmt"
)

const tableKeys = "access_keys"

// createSchema ensures the keys table exists. The statement is accepted by
// both MySQL and SQLite.
func (s *SQL) createSchema() error {
	query := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s%s (
                   value VARCHAR(64) NOT NULL,
                   owner_id BIGINT NOT NULL DEFAULT 0,
                   scopes TEXT NOT NULL,
                   created_at BIGINT NOT NULL DEFAULT 0,
                   state VARCHAR(16) NOT NULL DEFAULT 'unused',
                   consumed_by VARCHAR(128) NOT NULL DEFAULT '',
                   consumed_at BIGINT NOT NULL DEFAULT 0,
                   PRIMARY KEY (value)
                 )`,
		s.prefix, tableKeys,
	)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create table %s%s: %w", s.prefix, tableKeys, err)
	}
	return nil
}

func (s *SQL) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *SQL) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *SQL) stmtInsertKey() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s%s
                   (value, owner_id, scopes, created_at, state, consumed_by, consumed_at)
                   VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.prefix, tableKeys,
	)
	return s.prepareStmt("insertKey", query)
}

func (s *SQL) stmtSelectKey() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT value, owner_id, scopes, created_at, state, consumed_by, consumed_at
                   FROM %s%s
                   WHERE value = ?`,
		s.prefix, tableKeys,
	)
	return s.prepareStmt("selectKey", query)
}

func (s *SQL) stmtRedeemKey() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %s%s SET
                   state = ?,
                   consumed_by = ?,
                   consumed_at = ?
                   WHERE value = ? AND state = ?`,
		s.prefix, tableKeys,
	)
	return s.prepareStmt("redeemKey", query)
}

func (s *SQL) stmtCountKeys() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0)
                   FROM %s%s`,
		s.prefix, tableKeys,
	)
	return s.prepareStmt("countKeys", query)
}

package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a durable ledger backed by a local sqlite database. Unlike the
// region index, transfers are synchronous: the transfer outcome decides whether
// a lease transition commits, so there is no writer queue here.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			account TEXT PRIMARY KEY,
			balance INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS transfers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_account TEXT NOT NULL,
			to_account TEXT NOT NULL,
			amount INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_from ON transfers(from_account);`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_to ON transfers(to_account);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &SQLite{db: db}, nil
}

func (l *SQLite) Close() error {
	return l.db.Close()
}

func (l *SQLite) Balance(account string) (int64, error) {
	var bal int64
	err := l.db.QueryRow(`SELECT balance FROM accounts WHERE account = ?`, account).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return bal, err
}

func (l *SQLite) Deposit(account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative deposit %d", amount)
	}
	_, err := l.db.Exec(`
		INSERT INTO accounts (account, balance) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET balance = balance + excluded.balance`,
		account, amount)
	return err
}

func (l *SQLite) Transfer(from, to string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer %d", amount)
	}
	if amount == 0 {
		return nil
	}
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var bal int64
	err = tx.QueryRow(`SELECT balance FROM accounts WHERE account = ?`, from).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInsufficientFunds
	}
	if err != nil {
		return err
	}
	if bal < amount {
		return ErrInsufficientFunds
	}
	if _, err := tx.Exec(`UPDATE accounts SET balance = balance - ? WHERE account = ?`, amount, from); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO accounts (account, balance) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET balance = balance + excluded.balance`,
		to, amount); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO transfers (from_account, to_account, amount, recorded_at)
		VALUES (?, ?, ?, ?)`,
		from, to, amount, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

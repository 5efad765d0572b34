// Package leasedb persists regions, leases, and groups in a local sqlite
// database. Writes go through a single writer goroutine; reads happen only at
// startup via LoadAll. Pending scheduler events are never stored: they are
// recomputed from lease end times when the engine loads.
package leasedb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"landrush.gg/internal/lease/model"
)

type DB struct {
	db  *sql.DB
	log *log.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqPutRegion reqKind = iota + 1
	reqDeleteRegion
	reqPutGroup
	reqDeleteGroup
	reqFlush
)

func (k reqKind) String() string {
	switch k {
	case reqPutRegion:
		return "put region"
	case reqDeleteRegion:
		return "delete region"
	case reqPutGroup:
		return "put group"
	case reqDeleteGroup:
		return "delete group"
	default:
		return "flush"
	}
}

type req struct {
	kind  reqKind
	name  string
	doc   []byte
	flush chan struct{}
}

func Open(path string, logger *log.Logger) (*DB, error) {
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
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS regions (
			name TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS groups (
			name TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if logger == nil {
		logger = log.New(os.Stdout, "[leasedb] ", log.LstdFlags|log.Lmicroseconds)
	}
	d := &DB{
		db:  db,
		log: logger,
		ch:  make(chan req, 4096),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func (d *DB) loop() {
	for r := range d.ch {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		var err error
		switch r.kind {
		case reqPutRegion:
			_, err = d.db.Exec(`
				INSERT INTO regions (name, doc, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
				r.name, string(r.doc), now)
		case reqDeleteRegion:
			_, err = d.db.Exec(`DELETE FROM regions WHERE name = ?`, r.name)
		case reqPutGroup:
			_, err = d.db.Exec(`
				INSERT INTO groups (name, doc, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
				r.name, string(r.doc), now)
		case reqDeleteGroup:
			_, err = d.db.Exec(`DELETE FROM groups WHERE name = ?`, r.name)
		case reqFlush:
			close(r.flush)
		}
		if err != nil {
			// The in-memory store stays authoritative; the persisted copy is
			// stale until the next successful write of this name.
			d.log.Printf("%s %s: %v", r.kind, r.name, err)
		}
	}
}

// Close drains pending writes before closing the database.
func (d *DB) Close() error {
	var err error
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
		err = d.db.Close()
	})
	return err
}

// PutRegion enqueues an upsert. Unlike a secondary index, lease state is
// authoritative, so the send blocks rather than dropping when the writer
// falls behind.
func (d *DB) PutRegion(r *model.Region) {
	if d == nil || d.closed.Load() {
		return
	}
	doc, err := json.Marshal(r)
	if err != nil {
		d.log.Printf("marshal region %s: %v", r.Name, err)
		return
	}
	d.ch <- req{kind: reqPutRegion, name: r.Name, doc: doc}
}

func (d *DB) DeleteRegion(name string) {
	if d == nil || d.closed.Load() {
		return
	}
	d.ch <- req{kind: reqDeleteRegion, name: name}
}

func (d *DB) PutGroup(g model.Group) {
	if d == nil || d.closed.Load() {
		return
	}
	doc, err := json.Marshal(g)
	if err != nil {
		d.log.Printf("marshal group %s: %v", g.Name, err)
		return
	}
	d.ch <- req{kind: reqPutGroup, name: g.Name, doc: doc}
}

func (d *DB) DeleteGroup(name string) {
	if d == nil || d.closed.Load() {
		return
	}
	d.ch <- req{kind: reqDeleteGroup, name: name}
}

// Flush blocks until every enqueued write has been applied.
func (d *DB) Flush() {
	if d == nil || d.closed.Load() {
		return
	}
	done := make(chan struct{})
	d.ch <- req{kind: reqFlush, flush: done}
	<-done
}

// LoadAll reads every persisted region and group. Called once at startup
// before the writer sees any traffic.
func (d *DB) LoadAll() ([]*model.Region, []model.Group, error) {
	if d == nil {
		return nil, nil, nil
	}
	rows, err := d.db.Query(`SELECT doc FROM regions ORDER BY name`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var regions []*model.Region
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, nil, err
		}
		var r model.Region
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, nil, fmt.Errorf("region doc: %w", err)
		}
		regions = append(regions, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	grows, err := d.db.Query(`SELECT doc FROM groups ORDER BY name`)
	if err != nil {
		return nil, nil, err
	}
	defer grows.Close()

	var groups []model.Group
	for grows.Next() {
		var doc string
		if err := grows.Scan(&doc); err != nil {
			return nil, nil, err
		}
		var g model.Group
		if err := json.Unmarshal([]byte(doc), &g); err != nil {
			return nil, nil, fmt.Errorf("group doc: %w", err)
		}
		groups = append(groups, g)
	}
	return regions, groups, grows.Err()
}

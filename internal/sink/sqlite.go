package sink

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a durable sink backed by a SQLite database in WAL mode. Appends
// buffer in memory; Flush writes the buffer in a single transaction, so a
// flush either lands completely or not at all and partial logs stay readable
// after an abort.
type SQLite struct {
	mu    sync.Mutex
	db    *sql.DB
	runID string
	buf   []Record
}

// OpenSQLite creates or opens the database at path and prepares the schema.
// Every record written through this sink is stamped with runID.
func OpenSQLite(path, runID string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open log database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to log database: %w", err)
	}

	// SQLite allows a single writer; keep one connection to avoid
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply log schema: %w", err)
	}

	return &SQLite{db: db, runID: runID}, nil
}

func (s *SQLite) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, rec)
	return nil
}

func (s *SQLite) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin log flush: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO records (run_id, time_ns, wall, grp, key, value, value_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare log insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range s.buf {
		val, typ, err := encodeValue(rec.Value)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode log value for %s/%s: %w", rec.Group, rec.Key, err)
		}
		if _, err := stmt.Exec(
			s.runID,
			rec.Time.Nanoseconds(),
			rec.Wall.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
			rec.Group,
			rec.Key,
			val,
			typ,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert log record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit log flush: %w", err)
	}
	s.buf = s.buf[:0]
	return nil
}

func (s *SQLite) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// encodeValue serializes a cty value and its type to JSON text. Bare trigger
// records carry no value at all.
func encodeValue(v cty.Value) (string, string, error) {
	if v == cty.NilVal {
		return "null", "", nil
	}
	val, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return "", "", err
	}
	typ, err := ctyjson.MarshalType(v.Type())
	if err != nil {
		return "", "", err
	}
	return string(val), string(typ), nil
}

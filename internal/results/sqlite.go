package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createResultsTable = `
	CREATE TABLE IF NOT EXISTS results (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		student_name TEXT NOT NULL,
		student_roll TEXT NOT NULL,
		class_id TEXT NOT NULL DEFAULT '',
		class_name TEXT NOT NULL DEFAULT '',
		chapter_id TEXT NOT NULL DEFAULT '',
		chapter_name TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		total_time_seconds INTEGER NOT NULL DEFAULT 0,
		timestamp TEXT NOT NULL
	);
`

// SQLiteStore keeps records in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create results dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if err := configure(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(createResultsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create results table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func configure(db *sql.DB) error {
	// A single writer keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(time.Minute)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	return nil
}

// Append inserts rec.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (id, student_name, student_roll, class_id, class_name,
			chapter_id, chapter_name, score, total_questions, total_time_seconds, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StudentName, string(rec.StudentRoll), rec.ClassID, rec.ClassName,
		rec.ChapterID, rec.ChapterName, rec.Score, rec.TotalQuestions, rec.TotalTimeSeconds,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// List returns every record in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_name, student_roll, class_id, class_name, chapter_id,
			chapter_name, score, total_questions, total_time_seconds, timestamp
		FROM results ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			rec  Record
			roll string
			ts   string
		)
		if err := rows.Scan(&rec.ID, &rec.StudentName, &roll, &rec.ClassID, &rec.ClassName,
			&rec.ChapterID, &rec.ChapterName, &rec.Score, &rec.TotalQuestions,
			&rec.TotalTimeSeconds, &ts); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		rec.StudentRoll = Roll(roll)
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = parsed
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/rankfuse/rankfuse/internal/errors"
)

// LoadSQLite reads a corpus from a SQLite database materialized by an
// external ingestion pipeline. The table must have a `content` TEXT
// column; an optional `metadata` column holds a JSON object of string
// values. Rows are read in rowid order so passage IDs are stable across
// loads of the same database.
func LoadSQLite(ctx context.Context, path, table string) (*Corpus, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Errorf("open corpus database: %w", err))
	}
	defer db.Close()

	passages, err := readPassages(ctx, db, table)
	if err != nil {
		return nil, err
	}

	return New(passages)
}

func readPassages(ctx context.Context, db *sql.DB, table string) ([]Passage, error) {
	hasMeta, err := hasColumn(ctx, db, table, "metadata")
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT content FROM %q ORDER BY rowid", table)
	if hasMeta {
		query = fmt.Sprintf("SELECT content, metadata FROM %q ORDER BY rowid", table)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Errorf("query corpus table: %w", err))
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var content string
		var meta sql.NullString

		if hasMeta {
			err = rows.Scan(&content, &meta)
		} else {
			err = rows.Scan(&content)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Errorf("scan corpus row: %w", err))
		}

		p := Passage{Content: content}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &p.Metadata); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput,
					fmt.Errorf("parse metadata for passage %d: %w", len(passages), err))
			}
		}
		passages = append(passages, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Errorf("iterate corpus rows: %w", err))
	}

	return passages, nil
}

// hasColumn reports whether the table declares the named column.
func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Errorf("inspect corpus table: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, errors.Wrap(errors.ErrCodeInvalidInput, err)
		}
		if name == column {
			return true, nil
		}
	}

	return false, rows.Err()
}

package persona

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BerylCAtieno/clientlens/internal/models"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS personas (
	seq                   INTEGER PRIMARY KEY AUTOINCREMENT,
	id                    TEXT NOT NULL UNIQUE,
	name                  TEXT NOT NULL,
	company               TEXT NOT NULL DEFAULT '',
	role                  TEXT NOT NULL DEFAULT '',
	industry              TEXT NOT NULL DEFAULT '',
	key_pain_points       TEXT NOT NULL DEFAULT '[]',
	budget                TEXT NOT NULL DEFAULT '',
	decision_maker_status TEXT NOT NULL DEFAULT '',
	last_interview_date   TEXT NOT NULL DEFAULT '',
	tags                  TEXT NOT NULL DEFAULT '[]',
	status                TEXT NOT NULL,
	history               TEXT NOT NULL DEFAULT '[]'
)`

const selectColumns = `id, name, company, role, industry, key_pain_points, budget,
	decision_maker_status, last_interview_date, tags, status, history`

// SQLiteStore persists personas in a SQLite database. Insertion order is kept
// by the seq column; list fields and history are stored as JSON.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. When the
// personas table is empty it is filled from seed; an existing table is left
// as is. path may be ":memory:".
func OpenSQLite(ctx context.Context, path string, seed []models.Persona) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating personas table: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.seed(ctx, seed); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) seed(ctx context.Context, seed []models.Persona) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM personas").Scan(&count); err != nil {
		return fmt.Errorf("counting personas: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[string]bool, len(seed))
	for _, p := range seed {
		if p.ID == "" {
			return fmt.Errorf("seeding persona %q: missing id", p.Name)
		}
		if seen[p.ID] {
			return fmt.Errorf("seeding persona %q: %w", p.ID, ErrDuplicateID)
		}
		seen[p.ID] = true

		row, err := encodeRow(p)
		if err != nil {
			return fmt.Errorf("seeding persona %q: %w", p.ID, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO personas (`+selectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Company, p.Role, p.Industry, row.painPoints, p.Budget,
			p.DecisionMakerStatus, p.LastInterviewDate, row.tags, string(p.Status), row.history)
		if err != nil {
			return fmt.Errorf("inserting persona %q: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Persona, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM personas ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("listing personas: %w", err)
	}
	defer rows.Close()

	out := []models.Persona{}
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (models.Persona, error) {
	return getPersona(ctx, s.db, id)
}

func (s *SQLiteStore) Update(ctx context.Context, id string, patch models.PersonaPatch) (models.Persona, error) {
	if err := patch.Validate(); err != nil {
		return models.Persona{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Persona{}, fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback()

	current, err := getPersona(ctx, tx, id)
	if err != nil {
		return models.Persona{}, err
	}
	updated := current.Apply(patch)

	row, err := encodeRow(updated)
	if err != nil {
		return models.Persona{}, fmt.Errorf("updating persona %q: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `UPDATE personas SET
		name = ?, company = ?, role = ?, industry = ?, key_pain_points = ?, budget = ?,
		decision_maker_status = ?, last_interview_date = ?, tags = ?, status = ?
		WHERE id = ?`,
		updated.Name, updated.Company, updated.Role, updated.Industry, row.painPoints, updated.Budget,
		updated.DecisionMakerStatus, updated.LastInterviewDate, row.tags, string(updated.Status), id)
	if err != nil {
		return models.Persona{}, fmt.Errorf("updating persona %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return models.Persona{}, fmt.Errorf("committing update: %w", err)
	}
	return updated, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getPersona(ctx context.Context, q queryer, id string) (models.Persona, error) {
	row := q.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM personas WHERE id = ?", id)
	p, err := scanPersona(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Persona{}, fmt.Errorf("persona %q: %w", id, ErrNotFound)
	}
	return p, err
}

func scanPersona(row scanner) (models.Persona, error) {
	var (
		p                         models.Persona
		painPoints, tags, history string
		status                    string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Company, &p.Role, &p.Industry, &painPoints, &p.Budget,
		&p.DecisionMakerStatus, &p.LastInterviewDate, &tags, &status, &history)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning persona: %w", err)
	}
	p.Status = models.Status(status)
	if err := json.Unmarshal([]byte(painPoints), &p.KeyPainPoints); err != nil {
		return p, fmt.Errorf("decoding pain points of %q: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return p, fmt.Errorf("decoding tags of %q: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(history), &p.History); err != nil {
		return p, fmt.Errorf("decoding history of %q: %w", p.ID, err)
	}
	return p, nil
}

type encodedRow struct {
	painPoints, tags, history string
}

func encodeRow(p models.Persona) (encodedRow, error) {
	var r encodedRow
	for _, f := range []struct {
		dst *string
		v   any
	}{
		{&r.painPoints, nonNil(p.KeyPainPoints)},
		{&r.tags, nonNil(p.Tags)},
		{&r.history, p.History},
	} {
		b, err := json.Marshal(f.v)
		if err != nil {
			return r, err
		}
		*f.dst = string(b)
	}
	if r.history == "null" {
		r.history = "[]"
	}
	return r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

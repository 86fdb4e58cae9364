package shortcuts

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"slices"

	"github.com/lib/pq"
)

// Source supplies the shortcut catalog.
type Source interface {
	Shortcuts(ctx context.Context) ([]Shortcut, error)
}

// Static serves a fixed catalog.
type Static []Shortcut

func (s Static) Shortcuts(context.Context) ([]Shortcut, error) {
	return slices.Clone(s), nil
}

// Store reads the catalog from the shortcuts table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Shortcut, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, combination, description, application, category, difficulty,
		        COALESCE(tip, ''), COALESCE(related, '{}')
		 FROM shortcuts
		 ORDER BY position, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list shortcuts: %w", err)
	}
	defer rows.Close()

	var out []Shortcut
	for rows.Next() {
		var sc Shortcut
		var related []string
		if err := rows.Scan(&sc.ID, &sc.Combination, &sc.Description, &sc.Application,
			&sc.Category, &sc.Difficulty, &sc.Tip, pq.Array(&related)); err != nil {
			return nil, fmt.Errorf("scan shortcut: %w", err)
		}
		if len(related) > 0 {
			sc.Related = related
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Shortcuts returns the stored catalog, or DefaultCatalog when the table is
// empty or cannot be read.
func (s *Store) Shortcuts(ctx context.Context) ([]Shortcut, error) {
	if s == nil || s.db == nil {
		return slices.Clone(DefaultCatalog), nil
	}
	list, err := s.List(ctx)
	if err != nil {
		log.Printf("[shortcuts] falling back to built-in catalog: %v", err)
		return slices.Clone(DefaultCatalog), nil
	}
	if len(list) == 0 {
		return slices.Clone(DefaultCatalog), nil
	}
	return list, nil
}

// Seed inserts DefaultCatalog rows that are not present yet.
func (s *Store) Seed(ctx context.Context) error {
	for i, sc := range DefaultCatalog {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO shortcuts (id, combination, description, application, category, difficulty, tip, related, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			sc.ID, sc.Combination, sc.Description, sc.Application, sc.Category,
			sc.Difficulty, sc.Tip, pq.Array(sc.Related), i,
		)
		if err != nil {
			return fmt.Errorf("seed shortcut %s: %w", sc.ID, err)
		}
	}
	return nil
}

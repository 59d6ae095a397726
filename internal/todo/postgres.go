package todo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS todo_items (
	id          uuid PRIMARY KEY,
	description text NOT NULL,
	category    text NOT NULL,
	subcategory text,
	owned_by    text,
	cost        numeric(14, 2) NOT NULL DEFAULT 0,
	due_by      date,
	complete    boolean NOT NULL DEFAULT false,
	notes       text
)`

const selectColumns = `id, description, category, subcategory, owned_by, cost, due_by, complete, notes`

const upsertSQL = `
INSERT INTO todo_items (` + selectColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	description = EXCLUDED.description,
	category    = EXCLUDED.category,
	subcategory = EXCLUDED.subcategory,
	owned_by    = EXCLUDED.owned_by,
	cost        = EXCLUDED.cost,
	due_by      = EXCLUDED.due_by,
	complete    = EXCLUDED.complete,
	notes       = EXCLUDED.notes`

// PostgresStore is a Repository backed by the todo_items table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store using pool. Call EnsureSchema before
// first use on a fresh database.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the todo_items table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create todo_items: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Item, error) {
	query := `SELECT ` + selectColumns + ` FROM todo_items
		ORDER BY due_by ASC NULLS LAST, description ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query todo_items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todo_items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + selectColumns + ` FROM todo_items WHERE id = $1`

	it, err := scanItem(s.pool.QueryRow(ctx, query, toPgUUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return it, nil
}

// Save upserts items in one transaction.
func (s *PostgresStore) Save(ctx context.Context, items ...*Item) error {
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
		if ids[i] == uuid.Nil {
			ids[i] = uuid.New()
		}
		cost, err := toPgNumeric(it.Cost)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, upsertSQL,
			toPgUUID(ids[i]),
			it.Description,
			string(it.Category),
			toPgText(string(it.Subcategory)),
			toPgText(it.OwnedBy),
			cost,
			toPgDate(it.DueBy),
			it.Complete,
			toPgText(it.Notes),
		)
		if err != nil {
			return fmt.Errorf("save item %q: %w", it.Description, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	for i, it := range items {
		it.ID = ids[i]
	}
	return nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE todo_items`); err != nil {
		return fmt.Errorf("truncate todo_items: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var (
		id          pgtype.UUID
		subcategory pgtype.Text
		ownedBy     pgtype.Text
		cost        pgtype.Numeric
		dueBy       pgtype.Date
		notes       pgtype.Text
		it          Item
		category    string
	)
	err := row.Scan(&id, &it.Description, &category, &subcategory, &ownedBy, &cost, &dueBy, &it.Complete, &notes)
	if err != nil {
		return nil, err
	}

	it.ID = uuid.UUID(id.Bytes)
	it.Category = Category(category)
	it.Subcategory = Subcategory(fromPgText(subcategory))
	it.OwnedBy = fromPgText(ownedBy)
	it.DueBy = fromPgDate(dueBy)
	it.Notes = fromPgText(notes)
	if it.Cost, err = fromPgNumeric(cost); err != nil {
		return nil, fmt.Errorf("cost of %s: %w", it.ID, err)
	}
	return &it, nil
}

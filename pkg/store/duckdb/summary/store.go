package summary

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/store/duckdb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store computes grouped counts over a projected table with SQL. Input rows are
// loaded into a temporary table that does not outlive the call.
type Store interface {
	CountBy(ctx context.Context, t *domain.Table, dims ...string) (*domain.CountTable, error)
}

type countStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &countStore{db: db}, nil
}

func (s *countStore) CountBy(ctx context.Context, t *domain.Table, dims ...string) (*domain.CountTable, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("at least one dimension is required")
	}
	idx := make([]int, len(dims))
	for i, d := range dims {
		idx[i] = t.ColumnIndex(d)
		if idx[i] < 0 {
			return nil, &domain.MissingFieldError{Field: d}
		}
	}

	tx := duckdb.GetTransaction(ctx)
	owned := tx == nil
	if owned {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		// Nothing written here needs to survive the call.
		defer tx.Rollback()
	}

	table := "count_input_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	cols := make([]string, len(dims))
	for i := range dims {
		cols[i] = fmt.Sprintf("d%d", i)
	}

	if !owned {
		defer func() {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("table", table).Msg("failed to drop count input table")
			}
		}()
	}

	if err := s.load(ctx, tx, table, cols, idx, t.Rows); err != nil {
		return nil, err
	}

	out, err := s.count(ctx, tx, table, cols)
	if err != nil {
		return nil, err
	}
	out.Dimensions = append([]string(nil), dims...)
	out.Sort()
	return out, nil
}

func (s *countStore) load(ctx context.Context, tx *sql.Tx, table string, cols []string, idx []int, rows [][]string) error {
	defs := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c + " VARCHAR"
		marks[i] = "?"
	}

	create := fmt.Sprintf("CREATE TEMP TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create input table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(idx))
	for _, row := range rows {
		for i, c := range idx {
			args[i] = row[c]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return nil
}

func (s *countStore) count(ctx context.Context, tx *sql.Tx, table string, cols []string) (*domain.CountTable, error) {
	order := make([]string, 0, 2*len(cols))
	for _, c := range cols {
		order = append(order, fmt.Sprintf("natural_num(%s) NULLS LAST", c), c)
	}
	query := fmt.Sprintf(
		"SELECT %[1]s, COUNT(*) AS n FROM %[2]s GROUP BY %[1]s ORDER BY %[3]s",
		strings.Join(cols, ", "), table, strings.Join(order, ", "),
	)

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	out := &domain.CountTable{}
	for rows.Next() {
		keys := make([]string, len(cols))
		dest := make([]any, len(cols)+1)
		for i := range keys {
			dest[i] = &keys[i]
		}
		var n int64
		dest[len(cols)] = &n

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out.Rows = append(out.Rows, domain.CountRow{Keys: keys, Count: int(n)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

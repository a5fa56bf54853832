package trades

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/de-tools/realty-atlas/pkg/store/duckdb"
)

const schema = `
	CREATE TABLE IF NOT EXISTS trade_months (
		sgg_code     VARCHAR NOT NULL,
		deal_ym      VARCHAR NOT NULL,
		record_count INTEGER NOT NULL,
		fetched_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (sgg_code, deal_ym)
	);
	CREATE TABLE IF NOT EXISTS trade_records (
		sgg_code VARCHAR NOT NULL,
		deal_ym  VARCHAR NOT NULL,
		seq      INTEGER NOT NULL,
		fields   VARCHAR NOT NULL
	);`

// Store caches raw trade records per sub-region and month. A cached month
// with no records is distinct from a month never fetched.
type Store interface {
	Add(ctx context.Context, code string, month domain.Period, records []domain.Record) error
	Get(ctx context.Context, code string, month domain.Period) ([]domain.Record, bool, error)
	GetStats(ctx context.Context) (*Stats, error)
}

type Stats struct {
	Months  int64
	Records int64
	Oldest  *time.Time
}

type tradeStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create trade tables: %w", err)
	}
	return &tradeStore{
		db: db,
	}, nil
}

// Add replaces whatever was cached for the month.
func (s *tradeStore) Add(ctx context.Context, code string, month domain.Period, records []domain.Record) error {
	return duckdb.InTransaction(ctx, s.db, func(tx *sql.Tx) error {
		return s.add(ctx, tx, code, month, records)
	})
}

func (s *tradeStore) add(ctx context.Context, tx *sql.Tx, code string, month domain.Period, records []domain.Record) error {
	ym := month.String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM trade_records WHERE sgg_code = ? AND deal_ym = ?`, code, ym); err != nil {
		return fmt.Errorf("clear cached records: %w", err)
	}

	if len(records) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO trade_records (sgg_code, deal_ym, seq, fields) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, rec := range records {
			fields, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, code, ym, i, string(fields)); err != nil {
				return fmt.Errorf("insert record: %w", err)
			}
		}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO trade_months (sgg_code, deal_ym, record_count, fetched_at)
		VALUES (?, ?, ?, ?)`, code, ym, len(records), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark month cached: %w", err)
	}
	return nil
}

// Get reads the month marker and its records in one transaction so a
// concurrent Add is seen either completely or not at all.
func (s *tradeStore) Get(ctx context.Context, code string, month domain.Period) ([]domain.Record, bool, error) {
	var (
		records []domain.Record
		found   bool
	)
	err := duckdb.InTransaction(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		records, found, err = s.get(ctx, tx, code, month.String())
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return records, found, nil
}

func (s *tradeStore) get(ctx context.Context, tx *sql.Tx, code, ym string) ([]domain.Record, bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT record_count FROM trade_months WHERE sgg_code = ? AND deal_ym = ?`, code, ym).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cached month: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT fields FROM trade_records WHERE sgg_code = ? AND deal_ym = ? ORDER BY seq`, code, ym)
	if err != nil {
		return nil, false, fmt.Errorf("query cached records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0, count)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, false, fmt.Errorf("scan record: %w", err)
		}
		rec := domain.Record{}
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, false, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate records: %w", err)
	}
	if len(records) != count {
		return nil, false, fmt.Errorf("cached month %s/%s holds %d records, expected %d", code, ym, len(records), count)
	}
	return records, true, nil
}

func (s *tradeStore) GetStats(ctx context.Context) (*Stats, error) {
	var (
		months, records int64
		oldest          sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), CAST(COALESCE(SUM(record_count), 0) AS BIGINT), MIN(fetched_at) FROM trade_months`).
		Scan(&months, &records, &oldest)
	if err != nil {
		return nil, fmt.Errorf("get cache stats: %w", err)
	}

	stats := &Stats{Months: months, Records: records}
	if oldest.Valid {
		t := oldest.Time
		stats.Oldest = &t
	}
	return stats, nil
}

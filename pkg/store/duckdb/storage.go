package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// NaturalNumMacro parses text cells such as "82,500" into finite numbers, NULL otherwise.
const NaturalNumMacro = `
	CREATE OR REPLACE MACRO natural_num(v) AS
		CASE WHEN isfinite(TRY_CAST(replace(trim(v), ',', '') AS DOUBLE))
			THEN TRY_CAST(replace(trim(v), ',', '') AS DOUBLE)
		END;
`

var bootQueries = []string{
	NaturalNumMacro,
}

type Settings struct {
	DbPath  string
	Threads int
}

func NewDB(settings Settings) (*sql.DB, error) {
	if settings.DbPath == "" {
		settings.DbPath = MemoryPath
	}
	if settings.Threads <= 0 {
		settings.Threads = 4
	}

	dsn := fmt.Sprintf("%s?threads=%d", settings.DbPath, settings.Threads)
	c, err := duckdb.NewConnector(dsn, func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			if _, err := exec.ExecContext(context.Background(), query, nil); err != nil {
				return fmt.Errorf("boot query: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(c), nil
}

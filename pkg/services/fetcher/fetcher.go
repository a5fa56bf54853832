// Package fetcher retrieves raw apartment trade records for one sub-region over a
// range of months.
package fetcher

import (
	"context"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

// Fetcher returns the raw records of one sub-region for every month in [start, end].
// Schema lists the fields each returned record carries.
type Fetcher interface {
	Fetch(ctx context.Context, code string, start, end domain.Period) ([]domain.Record, error)
	Schema() []string
}

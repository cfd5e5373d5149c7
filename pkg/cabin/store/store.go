package store

import (
	"context"
	"time"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
	"github.com/cognicore/cabin/pkg/cabin/normalize"
	"github.com/cognicore/cabin/pkg/cabin/setting"
)

// Normalization table names
const (
	TableAmountPercentage = "amount_percentage"
	TableAmountType       = "amount_type"
	TableAmountUnit       = "amount_unit"
	TableIndex            = "index"
)

// Store persists setting catalogs, normalization tables and the decision journal
type Store interface {
	Close() error

	// Catalog. SaveCatalog replaces any stored catalog.
	SaveCatalog(ctx context.Context, c *catalog.Catalog) error
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)

	// Normalization tables, by name. SaveTable replaces the named table.
	SaveTable(ctx context.Context, name string, entries []normalize.Entry) error
	LoadTable(ctx context.Context, name string) ([]normalize.Entry, error)

	// Journal
	AppendRecord(ctx context.Context, r Record) error
	RecentRecords(ctx context.Context, k int) ([]Record, error)
}

// Record is one journaled filter decision
type Record struct {
	ID       string              `json:"id"`
	Time     time.Time           `json:"time"`
	Intent   string              `json:"intent,omitempty"`
	Stage    string              `json:"stage"`
	Entities map[string][]string `json:"entities,omitempty"`
	Changes  []setting.Change    `json:"changes,omitempty"`
	Statuses []setting.Status    `json:"statuses,omitempty"`
}

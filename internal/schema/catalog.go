package schema

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/shopfloor/measure-backend/internal/platform/apierr"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
)

type Column struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default"`
}

type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

type ForeignKey struct {
	Name            string   `json:"name"`
	Columns         []string `json:"columns"`
	ReferredTable   string   `json:"referred_table"`
	ReferredColumns []string `json:"referred_columns"`
}

type TableDescriptor struct {
	Table       string       `json:"table"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	Indexes     []Index      `json:"indexes"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

// Catalog is a read-only reflection of the live schema. Nothing is cached:
// every call asks the storage engine, so the whitelist the query engine
// validates against can never go stale.
type Catalog struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalog(db *gorm.DB, baseLog *logger.Logger) *Catalog {
	return &Catalog{db: db, log: baseLog.With("component", "SchemaCatalog")}
}

func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	tables, err := c.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	sort.Strings(tables)
	return tables, nil
}

func (c *Catalog) TableExists(ctx context.Context, table string) (bool, error) {
	tables, err := c.ListTables(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if t == table {
			return true, nil
		}
	}
	return false, nil
}

// ValidColumns returns the column-name whitelist for a table. The caller is
// expected to have checked TableExists first.
func (c *Catalog) ValidColumns(ctx context.Context, table string) (map[string]struct{}, error) {
	colTypes, err := c.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("reflecting columns of %s: %w", table, err)
	}
	valid := make(map[string]struct{}, len(colTypes))
	for _, ct := range colTypes {
		valid[ct.Name()] = struct{}{}
	}
	return valid, nil
}

// PrimaryKey returns the primary-key column(s) of a table, in column order.
func (c *Catalog) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	colTypes, err := c.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("reflecting columns of %s: %w", table, err)
	}
	var pk []string
	for _, ct := range colTypes {
		if isPK, ok := ct.PrimaryKey(); ok && isPK {
			pk = append(pk, ct.Name())
		}
	}
	return pk, nil
}

func (c *Catalog) DescribeTable(ctx context.Context, table string) (*TableDescriptor, error) {
	exists, err := c.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apierr.NotFound("table not found: %s", table)
	}

	migrator := c.db.WithContext(ctx).Migrator()
	colTypes, err := migrator.ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("reflecting columns of %s: %w", table, err)
	}

	desc := &TableDescriptor{
		Table:       table,
		Columns:     make([]Column, 0, len(colTypes)),
		PrimaryKey:  []string{},
		Indexes:     []Index{},
		ForeignKeys: []ForeignKey{},
	}
	for _, ct := range colTypes {
		col := Column{
			Name: ct.Name(),
			Type: ct.DatabaseTypeName(),
		}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = nullable
		} else {
			col.Nullable = true
		}
		if def, ok := ct.DefaultValue(); ok {
			col.Default = &def
		}
		desc.Columns = append(desc.Columns, col)
		if isPK, ok := ct.PrimaryKey(); ok && isPK {
			desc.PrimaryKey = append(desc.PrimaryKey, ct.Name())
		}
	}

	indexes, err := migrator.GetIndexes(table)
	if err != nil {
		return nil, fmt.Errorf("reflecting indexes of %s: %w", table, err)
	}
	for _, idx := range indexes {
		unique := false
		if u, ok := idx.Unique(); ok {
			unique = u
		}
		desc.Indexes = append(desc.Indexes, Index{
			Name:    idx.Name(),
			Columns: idx.Columns(),
			Unique:  unique,
		})
	}

	fks, err := c.foreignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	desc.ForeignKeys = fks

	return desc, nil
}

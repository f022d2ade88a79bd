package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/shopfloor/measure-backend/internal/platform/apierr"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/schema"
)

const defaultLimit = 100

// Engine executes equality-filtered SELECT and SET+filter UPDATE statements
// against any table the schema catalog knows about. The rule is
// validate-then-build: table and column names reach generated SQL only after
// they passed the live-schema whitelist, and every value is a bound
// parameter.
type Engine struct {
	db      *gorm.DB
	catalog *schema.Catalog
	log     *logger.Logger
}

func NewEngine(db *gorm.DB, catalog *schema.Catalog, baseLog *logger.Logger) *Engine {
	return &Engine{db: db, catalog: catalog, log: baseLog.With("component", "QueryEngine")}
}

type SelectRequest struct {
	Table   string                 `json:"table"`
	Columns []string               `json:"columns"`
	Filters map[string]interface{} `json:"filters"`
	Limit   *int                   `json:"limit"`
	Offset  *int                   `json:"offset"`
}

type SelectResult struct {
	Table string                   `json:"table"`
	Count int                      `json:"count"`
	Data  []map[string]interface{} `json:"data"`
}

type UpdateRequest struct {
	Table   string                 `json:"table"`
	Set     map[string]interface{} `json:"set"`
	Filters map[string]interface{} `json:"filters"`
	PK      interface{}            `json:"pk"`
}

type UpdateResult struct {
	Table   string `json:"table"`
	Updated int64  `json:"updated"`
}

func (e *Engine) Select(ctx context.Context, req SelectRequest) (*SelectResult, error) {
	table, valid, err := e.resolveTable(ctx, req.Table)
	if err != nil {
		return nil, err
	}

	columns := req.Columns
	if len(columns) == 0 {
		columns = sortedColumnNames(valid)
	} else if unknown := unknownColumns(columns, valid); len(unknown) > 0 {
		return nil, apierr.BadRequest("unknown columns requested: %s", strings.Join(unknown, ", "))
	}
	if unknown := unknownKeys(req.Filters, valid); len(unknown) > 0 {
		return nil, apierr.BadRequest("unknown filter columns: %s", strings.Join(unknown, ", "))
	}

	limit := defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	offset := 0
	if req.Offset != nil {
		offset = *req.Offset
	}
	if limit < 0 || offset < 0 {
		return nil, apierr.BadRequest("limit and offset must be non-negative")
	}

	q := e.db.WithContext(ctx).Table(table).Select(columns).Limit(limit).Offset(offset)
	if len(req.Filters) > 0 {
		q = q.Where(req.Filters)
	}
	rows := make([]map[string]interface{}, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select on %s: %w", table, err)
	}

	return &SelectResult{Table: table, Count: len(rows), Data: rows}, nil
}

func (e *Engine) Update(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	table, valid, err := e.resolveTable(ctx, req.Table)
	if err != nil {
		return nil, err
	}

	if len(req.Set) == 0 {
		return nil, apierr.BadRequest("missing 'set' object with columns to update")
	}
	if unknown := unknownKeys(req.Set, valid); len(unknown) > 0 {
		return nil, apierr.BadRequest("unknown set columns: %s", strings.Join(unknown, ", "))
	}

	filters := make(map[string]interface{}, len(req.Filters)+1)
	for k, v := range req.Filters {
		filters[k] = v
	}
	if req.PK != nil {
		pkCols, err := e.catalog.PrimaryKey(ctx, table)
		if err != nil {
			return nil, err
		}
		if len(pkCols) == 0 {
			return nil, apierr.BadRequest("table has no primary key; use filters")
		}
		pkValue := req.PK
		if list, ok := req.PK.([]interface{}); ok {
			if len(pkCols) != 1 {
				return nil, apierr.BadRequest("composite primary key updates via pk list are not supported; use filters")
			}
			if len(list) != 1 {
				return nil, apierr.BadRequest("pk list must contain exactly one value")
			}
			pkValue = list[0]
		}
		filters[pkCols[0]] = pkValue
	}
	if len(filters) == 0 {
		return nil, apierr.BadRequest("refusing to update without filters or pk")
	}
	if unknown := unknownKeys(filters, valid); len(unknown) > 0 {
		return nil, apierr.BadRequest("unknown filter columns: %s", strings.Join(unknown, ", "))
	}

	var updated int64
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(table).Where(filters).Updates(req.Set)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update on %s: %w", table, err)
	}

	e.log.Debug("Generic update executed", "table", table, "updated", updated)
	return &UpdateResult{Table: table, Updated: updated}, nil
}

func (e *Engine) resolveTable(ctx context.Context, raw string) (string, map[string]struct{}, error) {
	table := strings.TrimSpace(raw)
	if table == "" {
		return "", nil, apierr.BadRequest("missing 'table'")
	}
	exists, err := e.catalog.TableExists(ctx, table)
	if err != nil {
		return "", nil, err
	}
	if !exists {
		return "", nil, apierr.NotFound("table not found: %s", table)
	}
	valid, err := e.catalog.ValidColumns(ctx, table)
	if err != nil {
		return "", nil, err
	}
	return table, valid, nil
}

func sortedColumnNames(valid map[string]struct{}) []string {
	cols := make([]string, 0, len(valid))
	for name := range valid {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func unknownColumns(requested []string, valid map[string]struct{}) []string {
	var unknown []string
	for _, name := range requested {
		if _, ok := valid[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func unknownKeys(m map[string]interface{}, valid map[string]struct{}) []string {
	var unknown []string
	for name := range m {
		if _, ok := valid[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

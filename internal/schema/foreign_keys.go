package schema

import (
	"context"
	"fmt"
)

// foreignKeys reflects foreign keys per dialect. GORM's migrator has no
// portable FK listing, so postgres goes through information_schema and
// sqlite through its pragma. The table name reaches SQL text only after the
// caller verified it against the live table list.
func (c *Catalog) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	switch c.db.Dialector.Name() {
	case "postgres":
		return c.foreignKeysPostgres(ctx, table)
	case "sqlite", "sqlite3":
		return c.foreignKeysSQLite(ctx, table)
	default:
		return []ForeignKey{}, nil
	}
}

func (c *Catalog) foreignKeysPostgres(ctx context.Context, table string) ([]ForeignKey, error) {
	type fkRow struct {
		ConstraintName string `gorm:"column:constraint_name"`
		ColumnName     string `gorm:"column:column_name"`
		ReferredTable  string `gorm:"column:referred_table"`
		ReferredColumn string `gorm:"column:referred_column"`
	}
	var rows []fkRow
	err := c.db.WithContext(ctx).Raw(`
		SELECT tc.constraint_name,
		       kcu.column_name,
		       ccu.table_name  AS referred_table,
		       ccu.column_name AS referred_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name
		 AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = current_schema()
		  AND tc.table_name = ?
		ORDER BY tc.constraint_name, kcu.ordinal_position`, table).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reflecting foreign keys of %s: %w", table, err)
	}

	fks := []ForeignKey{}
	byName := map[string]int{}
	for _, r := range rows {
		i, ok := byName[r.ConstraintName]
		if !ok {
			fks = append(fks, ForeignKey{
				Name:          r.ConstraintName,
				ReferredTable: r.ReferredTable,
			})
			i = len(fks) - 1
			byName[r.ConstraintName] = i
		}
		fks[i].Columns = append(fks[i].Columns, r.ColumnName)
		fks[i].ReferredColumns = append(fks[i].ReferredColumns, r.ReferredColumn)
	}
	return fks, nil
}

func (c *Catalog) foreignKeysSQLite(ctx context.Context, table string) ([]ForeignKey, error) {
	type fkRow struct {
		ID    int    `gorm:"column:id"`
		Seq   int    `gorm:"column:seq"`
		Table string `gorm:"column:table"`
		From  string `gorm:"column:from"`
		To    string `gorm:"column:to"`
	}
	var rows []fkRow
	err := c.db.WithContext(ctx).Raw(fmt.Sprintf("PRAGMA foreign_key_list(%q)", table)).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reflecting foreign keys of %s: %w", table, err)
	}

	fks := []ForeignKey{}
	byID := map[int]int{}
	for _, r := range rows {
		i, ok := byID[r.ID]
		if !ok {
			fks = append(fks, ForeignKey{
				Name:          fmt.Sprintf("fk_%s_%d", table, r.ID),
				ReferredTable: r.Table,
			})
			i = len(fks) - 1
			byID[r.ID] = i
		}
		fks[i].Columns = append(fks[i].Columns, r.From)
		fks[i].ReferredColumns = append(fks[i].ReferredColumns, r.To)
	}
	return fks, nil
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shopfloor/measure-backend/internal/db"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/schema"
)

// schematool inspects and prunes the measurement database schema.
//
//	schematool -list
//	schematool -show measured_shafts
//	schematool -drop-table measured_shafts -force
//	schematool -drop-all -dry-run
func main() {
	listFlag := flag.Bool("list", false, "list tables")
	showFlag := flag.String("show", "", "show structure for a table")
	dropTableFlag := flag.String("drop-table", "", "drop a single table")
	dropAllFlag := flag.Bool("drop-all", false, "drop ALL tables")
	forceFlag := flag.Bool("force", false, "skip confirmations for destructive actions")
	dryRunFlag := flag.Bool("dry-run", false, "show what would happen without executing")
	flag.Parse()

	_ = godotenv.Load()

	log, err := logger.New("production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	databaseService, err := db.NewDatabaseService(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	tool := &schemaTool{
		db:      databaseService,
		catalog: schema.NewCatalog(databaseService.DB(), log),
		stdin:   bufio.NewReader(os.Stdin),
		force:   *forceFlag,
		dryRun:  *dryRunFlag,
	}

	ctx := context.Background()
	switch {
	case *listFlag:
		err = tool.list(ctx)
	case *showFlag != "":
		err = tool.show(ctx, *showFlag)
	case *dropTableFlag != "":
		err = tool.dropTable(ctx, *dropTableFlag)
	case *dropAllFlag:
		err = tool.dropAll(ctx)
	default:
		err = tool.interactive(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type schemaTool struct {
	db      *db.DatabaseService
	catalog *schema.Catalog
	stdin   *bufio.Reader
	force   bool
	dryRun  bool
}

func (t *schemaTool) list(ctx context.Context) error {
	tables, err := t.catalog.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		fmt.Println(table)
	}
	return nil
}

func (t *schemaTool) show(ctx context.Context, table string) error {
	desc, err := t.catalog.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	fmt.Printf("Structure for table %q:\n", desc.Table)
	fmt.Printf("  %-25s %-20s %-8s %s\n", "Name", "Type", "Nullable", "Default")
	for _, col := range desc.Columns {
		def := ""
		if col.Default != nil {
			def = *col.Default
		}
		fmt.Printf("  %-25s %-20s %-8t %s\n", col.Name, col.Type, col.Nullable, def)
	}
	if len(desc.PrimaryKey) > 0 {
		fmt.Printf("\n  Primary key: %s\n", strings.Join(desc.PrimaryKey, ", "))
	}
	for _, idx := range desc.Indexes {
		fmt.Printf("  Index %s -> columns=%s unique=%t\n", idx.Name, strings.Join(idx.Columns, ","), idx.Unique)
	}
	for _, fk := range desc.ForeignKeys {
		fmt.Printf("  FK %s: %s references %s(%s)\n",
			fk.Name, strings.Join(fk.Columns, ","), fk.ReferredTable, strings.Join(fk.ReferredColumns, ","))
	}
	return nil
}

func (t *schemaTool) dropTable(ctx context.Context, table string) error {
	exists, err := t.catalog.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Printf("table %q does not exist\n", table)
		return nil
	}
	if !t.force {
		answer := t.prompt(fmt.Sprintf("Type the table name %q to confirm drop (blank to cancel): ", table))
		if answer != table {
			fmt.Println("aborted: confirmation mismatch")
			return nil
		}
	}
	if t.dryRun {
		fmt.Printf("dry-run: would drop table %q\n", table)
		return nil
	}
	if err := t.db.DB().WithContext(ctx).Migrator().DropTable(table); err != nil {
		return fmt.Errorf("dropping %s: %w", table, err)
	}
	fmt.Printf("dropped table %q\n", table)
	return nil
}

func (t *schemaTool) dropAll(ctx context.Context) error {
	tables, err := t.catalog.ListTables(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Println("no tables to drop")
		return nil
	}
	if !t.force {
		fmt.Printf("Tables to be dropped: %s\n", strings.Join(tables, ", "))
		if t.prompt("Type 'YES' to confirm dropping ALL tables: ") != "YES" {
			fmt.Println("aborted")
			return nil
		}
		if t.prompt("Type 'DROP ALL' to finalize: ") != "DROP ALL" {
			fmt.Println("aborted")
			return nil
		}
	}
	if t.dryRun {
		fmt.Printf("dry-run: would drop tables: %s\n", strings.Join(tables, ", "))
		return nil
	}
	for _, table := range tables {
		if err := t.db.DB().WithContext(ctx).Migrator().DropTable(table); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	fmt.Println("dropped all tables")
	return nil
}

func (t *schemaTool) interactive(ctx context.Context) error {
	for {
		tables, err := t.catalog.ListTables(ctx)
		if err != nil {
			return err
		}
		fmt.Println("\n=== Schema tool ===")
		fmt.Printf("Current tables (%d): %s\n", len(tables), strings.Join(tables, ", "))
		fmt.Println("  1) Show table structure")
		fmt.Println("  2) Drop a table")
		fmt.Println("  3) Drop ALL tables")
		fmt.Println("  0) Exit")
		switch t.prompt("Select option: ") {
		case "1":
			if err := t.show(ctx, t.prompt("Table name: ")); err != nil {
				fmt.Println(err)
			}
		case "2":
			if err := t.dropTable(ctx, t.prompt("Table to drop: ")); err != nil {
				fmt.Println(err)
			}
		case "3":
			if err := t.dropAll(ctx); err != nil {
				fmt.Println(err)
			}
		case "0":
			return nil
		default:
			fmt.Println("invalid selection")
		}
	}
}

func (t *schemaTool) prompt(msg string) string {
	fmt.Print(msg)
	line, err := t.stdin.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// Command dbinspect prints the relational schema and can reset it in
// development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"fashfolio/internal/config"
	"fashfolio/internal/database"

	"gorm.io/gorm"
)

func main() {
	yes := flag.Bool("yes", false, "Confirm destructive commands")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage:")
		fmt.Println("  dbinspect tables               - List tables with row counts")
		fmt.Println("  dbinspect columns <table>      - List columns of a table")
		fmt.Println("  dbinspect constraints          - List constraints (postgres)")
		fmt.Println("  dbinspect -yes nuke            - Drop and recreate the public schema (postgres, non-production)")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.StoreDriver == config.DriverMongo {
		log.Fatal("dbinspect only supports relational drivers")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = database.Close(db) }()

	switch flag.Arg(0) {
	case "tables":
		listTables(db)
	case "columns":
		if flag.NArg() < 2 {
			log.Fatal("columns requires a table name")
		}
		listColumns(db, flag.Arg(1))
	case "constraints":
		requirePostgres(cfg)
		listConstraints(db)
	case "nuke":
		requirePostgres(cfg)
		if cfg.IsProduction() || !*yes {
			log.Fatal("refusing to nuke: pass -yes outside production")
		}
		nuke(db)
	default:
		log.Fatalf("unknown command: %s", flag.Arg(0))
	}
}

func requirePostgres(cfg *config.Config) {
	if cfg.StoreDriver != config.DriverPostgres {
		log.Fatalf("command requires postgres, got %s", cfg.StoreDriver)
	}
}

func listTables(db *gorm.DB) {
	tables, err := db.Migrator().GetTables()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Tables:")
	for _, t := range tables {
		var count int64
		db.Table(t).Count(&count)
		fmt.Printf(" - %s: %d rows\n", t, count)
	}
}

func listColumns(db *gorm.DB, table string) {
	columns, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Columns in %s:\n", table)
	for _, c := range columns {
		nullable, _ := c.Nullable()
		fmt.Printf(" - %s: %s (nullable=%v)\n", c.Name(), c.DatabaseTypeName(), nullable)
	}
}

func listConstraints(db *gorm.DB) {
	var result []struct {
		Relname string `gorm:"column:relname"`
		Conname string `gorm:"column:conname"`
		Def     string `gorm:"column:def"`
	}
	err := db.Raw("SELECT r.relname, c.conname, pg_get_constraintdef(c.oid) as def FROM pg_constraint c JOIN pg_class r ON c.conrelid = r.oid JOIN pg_namespace n ON n.oid = r.relnamespace WHERE n.nspname = 'public' ORDER BY r.relname").Scan(&result).Error
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("All constraints in database (public schema):")
	for _, r := range result {
		fmt.Printf(" - %s on %s: %s\n", r.Conname, r.Relname, r.Def)
	}
}

func nuke(db *gorm.DB) {
	fmt.Println("Nuking database...")
	if err := db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
		log.Fatalf("failed to nuke schema: %v", err)
	}
	if err := db.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
		log.Fatalf("failed to grant schema permissions: %v", err)
	}
	fmt.Println("Database nuked.")
}

// generate_schema migrates an in-memory catalog and writes its DDL to the
// schema snapshot sqlc reads.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/migrations"
)

const schemaHeader = `-- Generated from internal/database/migrations/files/*.sql.
-- Do not edit; run 'go generate ./internal/database'.

`

// Tables first so sqlc sees them before their indexes.
const ddlQuery = `
SELECT sql FROM sqlite_master
WHERE sql IS NOT NULL
  AND type IN ('table', 'index')
  AND name NOT LIKE 'sqlite_%'
  AND tbl_name != 'schema_migrations'
ORDER BY type = 'index', name`

func main() {
	out := flag.String("o", "internal/database/sqlc/schema.sql", "output file")
	flag.Parse()

	db, err := database.OpenConnection(database.MemoryPath)
	if err != nil {
		log.Fatalf("opening catalog: %v", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		log.Fatalf("migrating: %v", err)
	}

	ddl, err := dumpDDL(db)
	if err != nil {
		log.Fatalf("dumping schema: %v", err)
	}
	if err := os.WriteFile(*out, []byte(ddl), 0644); err != nil {
		log.Fatalf("writing %s: %v", *out, err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func dumpDDL(db *sql.DB) (string, error) {
	rows, err := db.Query(ddlQuery)
	if err != nil {
		return "", fmt.Errorf("listing schema: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString(schemaHeader)
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scanning statement: %w", err)
		}
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	return b.String(), rows.Err()
}

// gridcli is a small inspection tool over the grid engine: it logs in
// when needed, pulls a table through the sync client and prints the
// rows with their rendered cell values.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/projectpulse/gridcore/internal/client"
	"github.com/projectpulse/gridcore/internal/config"
	"github.com/projectpulse/gridcore/internal/grid"
	"github.com/projectpulse/gridcore/internal/localstore"
	"github.com/projectpulse/gridcore/internal/store"
	"github.com/projectpulse/gridcore/pkg/fieldtypes"
	"github.com/projectpulse/gridcore/pkg/models"
)

func main() {
	tableID := flag.String("table", "tbl_projects", "table to fetch")
	email := flag.String("email", "", "login email (omit to reuse the stored session)")
	password := flag.String("password", "", "login password")
	filterExpr := flag.String("filter", "", "optional filter expression, e.g. 'col_budget > 1000'")
	flag.Parse()

	cfg := config.Load()

	local, err := localstore.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer local.Close()

	api := client.New(cfg.APIBaseURL, local)
	api.HTTPClient.Timeout = cfg.RequestTimeout
	api.OnUnauthorized = func() {
		log.Println("Session expired; clearing stored token")
		if err := local.ClearToken(); err != nil {
			log.Printf("Failed to clear token: %v", err)
		}
	}

	ctx := context.Background()

	if *email != "" {
		token, err := api.Login(ctx, *email, *password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		if err := local.SetToken(token); err != nil {
			log.Fatalf("Failed to persist token: %v", err)
		}
		log.Println("Logged in; token stored")
	}

	records, err := api.ListRecords(ctx, *tableID)
	if err != nil {
		log.Fatalf("Failed to fetch records: %v", err)
	}

	cache := store.New(*tableID, api)
	cache.Replace(records)

	rows := records
	if *filterExpr != "" {
		rows, err = cache.Filter(*filterExpr)
		if err != nil {
			log.Fatalf("Bad filter: %v", err)
		}
	}

	columns := columnsFromRows(rows)
	controller := grid.New(cache, fieldtypes.GetRendererRegistry())
	controller.SetColumns(columns)

	w := os.Stdout
	fmt.Fprintf(w, "%-24s", "_id")
	for _, col := range columns {
		fmt.Fprintf(w, "%-20s", col.Name)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		fmt.Fprintf(w, "%-24s", row.ID)
		for _, col := range columns {
			fmt.Fprintf(w, "%-20s", controller.RenderCell(row.ID, col.ID))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d row(s)\n", len(rows))
}

// columnsFromRows derives text column stubs from the value keys when no
// table metadata endpoint is available to the CLI.
func columnsFromRows(rows []models.Record) []models.Column {
	seen := map[string]bool{}
	var columns []models.Column
	for _, row := range rows {
		for key := range row.Values {
			if seen[key] {
				continue
			}
			seen[key] = true
			columns = append(columns, models.Column{ID: key, Name: key, Type: models.ColumnTypeText})
		}
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].ID < columns[j].ID })
	return columns
}

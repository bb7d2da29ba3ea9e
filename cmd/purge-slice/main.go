// purge-slice deletes every count record and allocation of one (date, warehouse).
// It defaults to a dry run that only prints what would be removed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
)

func main() {
	date := flag.String("date", "", "Required: count date (YYYY-MM-DD)")
	warehouse := flag.String("warehouse", "", "Required: warehouse id")
	dryRun := flag.Bool("dry-run", true, "Show counts only (no writes)")
	confirm := flag.String("confirm", "", "Type PURGE to proceed when dry-run=false")
	flag.Parse()

	if strings.TrimSpace(*date) == "" || strings.TrimSpace(*warehouse) == "" {
		fmt.Fprintln(os.Stderr, "--date and --warehouse are required")
		os.Exit(1)
	}
	if !*dryRun && strings.TrimSpace(*confirm) != "PURGE" {
		fmt.Fprintln(os.Stderr, "set --confirm=PURGE to proceed")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	ctx := context.Background()

	records, err := models.QuerySlice(ctx, *date, *warehouse)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read slice: %v\n", err)
		os.Exit(1)
	}
	allocations, err := models.GetAllocations(ctx, *date, *warehouse)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read allocations: %v\n", err)
		os.Exit(1)
	}
	allocationCount := 0
	for _, list := range allocations {
		allocationCount += len(list)
	}
	progress := models.ClassifyProgress(models.MetricsOf(records))
	fmt.Printf("slice %s/%s: %d records (%s, %d%%), %d allocations\n",
		*date, *warehouse, len(records), progress.State, progress.Percentage, allocationCount)

	if *dryRun {
		return
	}

	// the operator typed the confirmation; that stands in for the admin key
	result, err := models.Purge(utils.SetAdminKeyVerifiedInContext(ctx), *date, *warehouse)
	if err != nil {
		fmt.Fprintf(os.Stderr, "purge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("purged: conteos_borrados=%d asignaciones_borradas=%d\n", result.CountsDeleted, result.AllocationsDeleted)
}

package reports_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/FDXFinanzas1/inventario-ciego/models/reports"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "inventario-reports-")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Setenv("DB_DRIVER", "sqlite")
	os.Setenv("DB_NAME", filepath.Join(dir, "reports.db"))
	os.Setenv("DB_TABLE_PREFIX", "")
	os.Setenv("REDIS_ADDRESS", "")
	os.Setenv("ENABLE_REPORT_CACHE", "")
	os.Setenv("EXPORT_GCS_BUCKET", "")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	if err := seedLedger(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type seedLine struct {
	code      string
	reference string
	cost      string
	count1    string
	count2    string
}

// seedLedger loads two days of counts for floreana and one for portugal.
func seedLedger(ctx context.Context) error {
	slices := []struct {
		date      string
		warehouse string
		lines     []seedLine
	}{
		{"2024-07-01", "floreana", []seedLine{
			{code: "A", reference: "10", cost: "2", count1: "8"},
			{code: "B", reference: "5", cost: "1", count1: "5"},
			{code: "C", reference: "3", cost: "1", count1: "4", count2: "3"},
			{code: "D", reference: "2", cost: "1"},
		}},
		{"2024-07-02", "floreana", []seedLine{
			{code: "A", reference: "10", cost: "2", count1: "13"},
		}},
		{"2024-07-02", "portugal", []seedLine{
			{code: "A", reference: "1", cost: "2", count1: "0"},
		}},
	}

	for _, s := range slices {
		items := make([]models.ReferenceItem, 0, len(s.lines))
		for _, l := range s.lines {
			cost := decimal.RequireFromString(l.cost)
			items = append(items, models.ReferenceItem{
				ProductCode:       l.code,
				Name:              "Producto " + l.code,
				Unit:              "u",
				ReferenceQuantity: decimal.RequireFromString(l.reference),
				UnitCost:          &cost,
			})
		}
		if _, err := models.UpsertReference(ctx, s.date, s.warehouse, items); err != nil {
			return err
		}
		records, err := models.QuerySlice(ctx, s.date, s.warehouse)
		if err != nil {
			return err
		}
		for i, l := range s.lines {
			for pass, value := range []string{l.count1, l.count2} {
				if value == "" {
					continue
				}
				q := decimal.NewNullDecimal(decimal.RequireFromString(value))
				if err := models.SubmitCount(ctx, records[i].ID, q, pass+1); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func TestDashboardRollup(t *testing.T) {
	rows, err := reports.GetDashboardRollup(context.Background(), "2024-07-01", "2024-07-01")
	if err != nil {
		t.Fatalf("GetDashboardRollup: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one warehouse, got %+v", rows)
	}
	r := rows[0]
	if r.WarehouseId != "floreana" || r.WarehouseName != "Floreana" {
		t.Fatalf("unexpected warehouse %s %q", r.WarehouseId, r.WarehouseName)
	}
	if r.TotalProducts != 4 || r.TotalCounted != 3 || r.TotalWithVariance != 1 {
		t.Fatalf("unexpected counters: %+v", r)
	}
	if r.MeanAbsVariance.String() != "2" || r.TotalShortages != 1 || r.TotalSurpluses != 0 {
		t.Fatalf("unexpected variance summary: mean=%s shortages=%d surpluses=%d", r.MeanAbsVariance, r.TotalShortages, r.TotalSurpluses)
	}

	if _, err := reports.GetDashboardRollup(context.Background(), "2024-07-02", "2024-07-01"); !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for an inverted range, got %v", err)
	}
}

func TestDifferences(t *testing.T) {
	rows, err := reports.GetDifferences(context.Background(), "2024-07-01", "")
	if err != nil {
		t.Fatalf("GetDifferences: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only product A to differ, got %+v", rows)
	}
	a := rows[0]
	if a.ProductCode != "A" || a.Variance.String() != "-2" || a.ValuedVariance.String() != "-4" {
		t.Fatalf("unexpected difference row: %+v", a)
	}

	rows, err = reports.GetDifferences(context.Background(), "2024-07-02", "portugal")
	if err != nil {
		t.Fatalf("GetDifferences: %v", err)
	}
	if len(rows) != 1 || rows[0].WarehouseId != "portugal" || rows[0].Variance.String() != "-1" {
		t.Fatalf("unexpected filtered differences: %+v", rows)
	}
}

func TestSliceHistory(t *testing.T) {
	rows, err := reports.GetSliceHistory(context.Background(), "2024-07-01", "2024-07-02", "")
	if err != nil {
		t.Fatalf("GetSliceHistory: %v", err)
	}
	var keys []string
	for _, r := range rows {
		keys = append(keys, r.CountDate+"/"+r.WarehouseId)
	}
	if strings.Join(keys, ",") != "2024-07-02/floreana,2024-07-02/portugal,2024-07-01/floreana" {
		t.Fatalf("unexpected history order: %v", keys)
	}

	first := rows[2]
	if first.Total != 4 || first.Counted != 3 || first.WithVariance != 1 || first.WithSecondPass != 1 {
		t.Fatalf("unexpected counters: %+v", first.SliceMetrics)
	}
	if first.State != models.SliceStateComplete || first.Percentage != 75 {
		t.Fatalf("second pass should complete the slice at 75%%, got %s %d", first.State, first.Percentage)
	}
	if rows[1].State != models.SliceStateInProgress {
		t.Fatalf("portugal has a variance and should be in progress, got %s", rows[1].State)
	}
}

func TestTrendRankingFromLedger(t *testing.T) {
	rows, err := reports.GetTrendRanking(context.Background(), reports.TrendFilter{From: "2024-07-01", To: "2024-07-02"})
	if err != nil {
		t.Fatalf("GetTrendRanking: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only product A to drift, got %+v", rows)
	}
	a := rows[0]
	if a.ProductCode != "A" || a.Frequency != 3 || a.MeanAbsVariance.String() != "2" || !a.AccumulatedVariance.IsZero() {
		t.Fatalf("unexpected trend row: %+v", a)
	}

	rows, err = reports.GetTrendRanking(context.Background(), reports.TrendFilter{WarehouseId: "portugal"})
	if err != nil {
		t.Fatalf("GetTrendRanking: %v", err)
	}
	if len(rows) != 1 || rows[0].Frequency != 1 {
		t.Fatalf("unexpected warehouse trend: %+v", rows)
	}
}

func TestTemporalSeriesFromLedger(t *testing.T) {
	got, err := reports.GetTemporalSeries(context.Background(), "2024-07-01", "2024-07-02")
	if err != nil {
		t.Fatalf("GetTemporalSeries: %v", err)
	}
	if strings.Join(got.Dates, ",") != "2024-07-01,2024-07-02" {
		t.Fatalf("unexpected dates: %v", got.Dates)
	}
	floreana, portugal := got.Series["floreana"], got.Series["portugal"]
	if floreana == nil || portugal == nil {
		t.Fatalf("expected both warehouses, got %v", got.Series)
	}
	if fmt.Sprint(floreana.Values) != "[1 1]" || fmt.Sprint(portugal.Values) != "[0 1]" {
		t.Fatalf("unexpected values floreana=%v portugal=%v", floreana.Values, portugal.Values)
	}
	if portugal.Name != "Portugal" {
		t.Fatalf("expected warehouse display name, got %q", portugal.Name)
	}

	if _, err := reports.GetRecentTemporalSeries(context.Background(), 0); !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for zero days, got %v", err)
	}
}

func TestExportCounts(t *testing.T) {
	wb, err := reports.ExportCounts(context.Background(), "2024-07-01", "2024-07-01", "floreana")
	if err != nil {
		t.Fatalf("ExportCounts: %v", err)
	}
	if wb.Filename != "inventario_2024-07-01_a_2024-07-01_floreana.xlsx" {
		t.Fatalf("unexpected filename %q", wb.Filename)
	}
	if wb.Archived {
		t.Fatalf("nothing should be archived without a bucket")
	}

	f, err := excelize.OpenReader(bytes.NewReader(wb.Data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Inventario")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header plus 4 records, got %d rows", len(rows))
	}
	if rows[0][0] != "Fecha" || rows[1][1] != "Floreana" || rows[1][2] != "A" {
		t.Fatalf("unexpected sheet content: %v", rows[:2])
	}
	if rows[1][8] != "-2" {
		t.Fatalf("expected variance -2 for A, got %q", rows[1][8])
	}
}

func TestExportCrossMatch(t *testing.T) {
	ctx := context.Background()
	execution := models.CrossMatchExecution{
		WarehouseId: "floreana",
		TakeDate:    "2024-07-01",
		Status:      models.ExecutionStatusCompleted,
		DetectedAt:  time.Now().UTC(),
	}
	if err := config.GetDB().Create(&execution).Error; err != nil {
		t.Fatalf("create execution: %v", err)
	}
	details := []models.CrossMatchDetail{
		{ExecutionId: execution.ID, ProductCode: "A", Origin: models.MatchOriginMatched, ValuedVariance: decimal.NewFromInt(-6)},
		{ExecutionId: execution.ID, ProductCode: "B", Origin: models.MatchOriginPhysicalOnly},
	}
	if err := config.GetDB().Create(&details).Error; err != nil {
		t.Fatalf("create details: %v", err)
	}

	wb, err := reports.ExportCrossMatch(ctx, execution.ID)
	if err != nil {
		t.Fatalf("ExportCrossMatch: %v", err)
	}
	if want := fmt.Sprintf("cruce_floreana_2024-07-01_%d.xlsx", execution.ID); wb.Filename != want {
		t.Fatalf("expected %q, got %q", want, wb.Filename)
	}
	f, err := excelize.OpenReader(bytes.NewReader(wb.Data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Cruce")
	if len(rows) != 3 || rows[1][0] != "A" {
		t.Fatalf("expected A first by valued variance, got %v", rows)
	}

	if _, err := reports.ExportCrossMatch(ctx, 987654); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

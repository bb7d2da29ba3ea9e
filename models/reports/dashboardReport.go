package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const countedExpr = "COALESCE(cr.count_2, cr.count_1)"

// DashboardRow is the rollup of one warehouse over a date range.
type DashboardRow struct {
	WarehouseId       string          `json:"local"`
	WarehouseName     string          `json:"local_nombre"`
	TotalProducts     int             `json:"total_productos"`
	TotalCounted      int             `json:"total_contados"`
	TotalWithVariance int             `json:"total_con_diferencia"`
	MeanAbsVariance   decimal.Decimal `json:"promedio_diferencia_abs"`
	TotalShortages    int             `json:"total_faltantes"`
	TotalSurpluses    int             `json:"total_sobrantes"`
}

type dashboardScanRow struct {
	WarehouseId       string
	WarehouseName     string
	TotalProducts     int
	TotalCounted      int
	TotalWithVariance int
	SumAbsVariance    decimal.NullDecimal
	TotalShortages    int
	TotalSurpluses    int
}

func dashboardSQL() string {
	return fmt.Sprintf(`
SELECT
    cr.warehouse_id AS warehouse_id,
    COALESCE(w.name, cr.warehouse_id) AS warehouse_name,
    COUNT(*) AS total_products,
    SUM(CASE WHEN cr.count_1 IS NOT NULL THEN 1 ELSE 0 END) AS total_counted,
    SUM(CASE WHEN %[1]s IS NOT NULL AND %[1]s <> cr.reference_quantity THEN 1 ELSE 0 END) AS total_with_variance,
    SUM(CASE WHEN %[1]s IS NOT NULL AND %[1]s <> cr.reference_quantity THEN ABS(%[1]s - cr.reference_quantity) END) AS sum_abs_variance,
    SUM(CASE WHEN %[1]s < cr.reference_quantity THEN 1 ELSE 0 END) AS total_shortages,
    SUM(CASE WHEN %[1]s > cr.reference_quantity THEN 1 ELSE 0 END) AS total_surpluses
FROM
    %[2]s AS cr
    LEFT JOIN %[3]s AS w ON w.id = cr.warehouse_id
WHERE
    cr.count_date BETWEEN ? AND ?
GROUP BY
    cr.warehouse_id, w.name
ORDER BY
    cr.warehouse_id
`, countedExpr, config.TableName("count_records"), config.TableName("warehouses"))
}

// meanOf divides with 4 decimal places; zero when there is nothing to average.
func meanOf(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.DivRound(decimal.NewFromInt(int64(n)), 4)
}

// GetDashboardRollup summarizes every warehouse with records in [from, to].
// The mean absolute variance only averages records whose variance is non-zero.
func GetDashboardRollup(ctx context.Context, from string, to string) ([]DashboardRow, error) {
	if err := utils.ValidateDateRange("fecha_desde", from, "fecha_hasta", to); err != nil {
		return nil, err
	}

	key := cacheKey("dashboard", from, to)
	var cached []DashboardRow
	if cacheGet(key, &cached) {
		return cached, nil
	}

	started := time.Now()
	var scanned []dashboardScanRow
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Raw(dashboardSQL(), from, to).Scan(&scanned).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("dashboard rollup", err)
	}
	logSlowReport(ctx, "dashboard", started, map[string]any{"from": from, "to": to})

	rows := make([]DashboardRow, 0, len(scanned))
	for _, s := range scanned {
		rows = append(rows, DashboardRow{
			WarehouseId:       s.WarehouseId,
			WarehouseName:     s.WarehouseName,
			TotalProducts:     s.TotalProducts,
			TotalCounted:      s.TotalCounted,
			TotalWithVariance: s.TotalWithVariance,
			MeanAbsVariance:   meanOf(s.SumAbsVariance.Decimal, s.TotalWithVariance),
			TotalShortages:    s.TotalShortages,
			TotalSurpluses:    s.TotalSurpluses,
		})
	}
	cacheSet(key, rows)
	return rows, nil
}

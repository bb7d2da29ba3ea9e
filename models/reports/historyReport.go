package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"gorm.io/gorm"
)

// SliceHistoryRow is the progress of one (date, warehouse) slice.
type SliceHistoryRow struct {
	WarehouseId   string `json:"local"`
	WarehouseName string `json:"local_nombre"`
	CountDate     string `json:"fecha"`
	models.SliceProgress
}

type historyScanRow struct {
	WarehouseId    string
	WarehouseName  string
	CountDate      string
	Total          int
	Counted        int
	WithVariance   int
	WithSecondPass int
}

func historySQL(withWarehouse bool) string {
	sql := fmt.Sprintf(`
SELECT
    cr.warehouse_id AS warehouse_id,
    COALESCE(w.name, cr.warehouse_id) AS warehouse_name,
    cr.count_date AS count_date,
    COUNT(*) AS total,
    SUM(CASE WHEN cr.count_1 IS NOT NULL THEN 1 ELSE 0 END) AS counted,
    SUM(CASE WHEN %[1]s IS NOT NULL AND %[1]s <> cr.reference_quantity THEN 1 ELSE 0 END) AS with_variance,
    SUM(CASE WHEN cr.count_2 IS NOT NULL THEN 1 ELSE 0 END) AS with_second_pass
FROM
    %[2]s AS cr
    LEFT JOIN %[3]s AS w ON w.id = cr.warehouse_id
WHERE
    cr.count_date BETWEEN ? AND ?`, countedExpr, config.TableName("count_records"), config.TableName("warehouses"))
	if withWarehouse {
		sql += "\n    AND cr.warehouse_id = ?"
	}
	return sql + `
GROUP BY
    cr.count_date, cr.warehouse_id, w.name
ORDER BY
    cr.count_date DESC, cr.warehouse_id`
}

// GetSliceHistory classifies every slice with records in [from, to], newest first.
func GetSliceHistory(ctx context.Context, from string, to string, warehouseId string) ([]SliceHistoryRow, error) {
	if err := utils.ValidateDateRange("fecha_desde", from, "fecha_hasta", to); err != nil {
		return nil, err
	}
	warehouseId = strings.TrimSpace(warehouseId)
	args := []interface{}{from, to}
	if warehouseId != "" {
		args = append(args, warehouseId)
	}

	started := time.Now()
	var scanned []historyScanRow
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Raw(historySQL(warehouseId != ""), args...).Scan(&scanned).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("slice history", err)
	}
	logSlowReport(ctx, "history", started, map[string]any{"from": from, "to": to, "warehouse": warehouseId})

	rows := make([]SliceHistoryRow, 0, len(scanned))
	for _, s := range scanned {
		rows = append(rows, SliceHistoryRow{
			WarehouseId:   s.WarehouseId,
			WarehouseName: s.WarehouseName,
			CountDate:     s.CountDate,
			SliceProgress: models.ClassifyProgress(models.SliceMetrics{
				Total:          s.Total,
				Counted:        s.Counted,
				WithVariance:   s.WithVariance,
				WithSecondPass: s.WithSecondPass,
			}),
		})
	}
	return rows, nil
}

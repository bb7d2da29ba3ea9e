package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DifferenceRow is a counted record whose variance is not zero.
type DifferenceRow struct {
	RecordId          int                 `json:"id"`
	WarehouseId       string              `json:"local"`
	WarehouseName     string              `json:"local_nombre"`
	ProductCode       string              `json:"codigo"`
	Name              string              `json:"nombre"`
	Unit              string              `json:"unidad"`
	ReferenceQuantity decimal.Decimal     `json:"sistema"`
	Count1            decimal.NullDecimal `json:"conteo1"`
	Count2            decimal.NullDecimal `json:"conteo2"`
	Variance          decimal.Decimal     `json:"diferencia"`
	UnitCost          decimal.Decimal     `json:"costo_unitario"`
	ValuedVariance    decimal.Decimal     `json:"diferencia_valorizada"`
	Notes             string              `json:"observaciones"`
}

type differenceScanRow struct {
	RecordId          int
	WarehouseId       string
	WarehouseName     string
	ProductCode       string
	Name              string
	Unit              string
	ReferenceQuantity decimal.Decimal
	Count1            decimal.NullDecimal
	Count2            decimal.NullDecimal
	UnitCost          decimal.Decimal
	Notes             string
}

func differencesSQL(withWarehouse bool) string {
	sql := fmt.Sprintf(`
SELECT
    cr.id AS record_id,
    cr.warehouse_id AS warehouse_id,
    COALESCE(w.name, cr.warehouse_id) AS warehouse_name,
    cr.product_code AS product_code,
    cr.name AS name,
    cr.unit AS unit,
    cr.reference_quantity AS reference_quantity,
    cr.count_1 AS count1,
    cr.count_2 AS count2,
    cr.unit_cost AS unit_cost,
    cr.notes AS notes
FROM
    %[2]s AS cr
    LEFT JOIN %[3]s AS w ON w.id = cr.warehouse_id
WHERE
    cr.count_date = ?
    AND %[1]s IS NOT NULL
    AND %[1]s <> cr.reference_quantity`, countedExpr, config.TableName("count_records"), config.TableName("warehouses"))
	if withWarehouse {
		sql += "\n    AND cr.warehouse_id = ?"
	}
	return sql + "\nORDER BY cr.warehouse_id, cr.product_code"
}

// GetDifferences lists the variant records of one date, optionally for one warehouse.
func GetDifferences(ctx context.Context, date string, warehouseId string) ([]DifferenceRow, error) {
	if err := utils.ValidateDate("fecha", date); err != nil {
		return nil, err
	}
	warehouseId = strings.TrimSpace(warehouseId)
	args := []interface{}{date}
	if warehouseId != "" {
		args = append(args, warehouseId)
	}

	var scanned []differenceScanRow
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Raw(differencesSQL(warehouseId != ""), args...).Scan(&scanned).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("differences report", err)
	}

	rows := make([]DifferenceRow, 0, len(scanned))
	for _, s := range scanned {
		counted := s.Count1
		if s.Count2.Valid {
			counted = s.Count2
		}
		variance := counted.Decimal.Sub(s.ReferenceQuantity)
		rows = append(rows, DifferenceRow{
			RecordId:          s.RecordId,
			WarehouseId:       s.WarehouseId,
			WarehouseName:     s.WarehouseName,
			ProductCode:       s.ProductCode,
			Name:              s.Name,
			Unit:              s.Unit,
			ReferenceQuantity: s.ReferenceQuantity,
			Count1:            s.Count1,
			Count2:            s.Count2,
			Variance:          variance,
			UnitCost:          s.UnitCost,
			ValuedVariance:    variance.Mul(s.UnitCost),
			Notes:             s.Notes,
		})
	}
	return rows, nil
}

package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultTrendLimit = 20

type TrendFilter struct {
	WarehouseId string
	From        string
	To          string
	Limit       int
}

// VarianceRow is one record with a non-zero variance.
type VarianceRow struct {
	ProductCode string
	Name        string
	CountDate   string
	WarehouseId string
	Variance    decimal.Decimal
}

type TrendRow struct {
	Ranking             int             `json:"ranking"`
	ProductCode         string          `json:"codigo"`
	Name                string          `json:"nombre"`
	Frequency           int             `json:"frecuencia"`
	MeanAbsVariance     decimal.Decimal `json:"promedio_desviacion"`
	AccumulatedVariance decimal.Decimal `json:"diferencia_acumulada"`
}

type trendAccumulator struct {
	name     string
	nameDate string
	slices   map[string]struct{}
	sumAbs   decimal.Decimal
	sum      decimal.Decimal
	n        int
}

// RankTrends groups variant records by product. Frequency counts distinct
// (date, warehouse) slices. Ranking is frequency desc, mean absolute variance
// desc, then product code asc. limit <= 0 keeps every product.
func RankTrends(rows []VarianceRow, limit int) []TrendRow {
	byCode := make(map[string]*trendAccumulator)
	for _, row := range rows {
		if row.Variance.IsZero() {
			continue
		}
		acc, ok := byCode[row.ProductCode]
		if !ok {
			acc = &trendAccumulator{slices: make(map[string]struct{})}
			byCode[row.ProductCode] = acc
		}
		acc.slices[row.CountDate+"|"+row.WarehouseId] = struct{}{}
		acc.sumAbs = acc.sumAbs.Add(row.Variance.Abs())
		acc.sum = acc.sum.Add(row.Variance)
		acc.n++
		if name := strings.TrimSpace(row.Name); name != "" && row.CountDate >= acc.nameDate {
			acc.name = name
			acc.nameDate = row.CountDate
		}
	}

	result := make([]TrendRow, 0, len(byCode))
	for code, acc := range byCode {
		result = append(result, TrendRow{
			ProductCode:         code,
			Name:                acc.name,
			Frequency:           len(acc.slices),
			MeanAbsVariance:     meanOf(acc.sumAbs, acc.n),
			AccumulatedVariance: acc.sum,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Frequency != result[j].Frequency {
			return result[i].Frequency > result[j].Frequency
		}
		if c := result[i].MeanAbsVariance.Cmp(result[j].MeanAbsVariance); c != 0 {
			return c > 0
		}
		return result[i].ProductCode < result[j].ProductCode
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	for i := range result {
		result[i].Ranking = i + 1
	}
	return result
}

func (f TrendFilter) validate() error {
	if f.From != "" || f.To != "" {
		return utils.ValidateDateRange("fecha_desde", f.From, "fecha_hasta", f.To)
	}
	return nil
}

// fetchVarianceRows loads records with a non-zero variance, oldest first.
func fetchVarianceRows(ctx context.Context, warehouseId string, from string, to string) ([]VarianceRow, error) {
	sql := fmt.Sprintf(`
SELECT
    cr.product_code AS product_code,
    cr.name AS name,
    cr.count_date AS count_date,
    cr.warehouse_id AS warehouse_id,
    %[1]s - cr.reference_quantity AS variance
FROM
    %[2]s AS cr
WHERE
    %[1]s IS NOT NULL
    AND %[1]s <> cr.reference_quantity`, countedExpr, config.TableName("count_records"))

	var args []interface{}
	if w := strings.TrimSpace(warehouseId); w != "" {
		sql += "\n    AND cr.warehouse_id = ?"
		args = append(args, w)
	}
	if from != "" && to != "" {
		sql += "\n    AND cr.count_date BETWEEN ? AND ?"
		args = append(args, from, to)
	}
	sql += "\nORDER BY cr.count_date, cr.warehouse_id, cr.product_code"

	var rows []VarianceRow
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Raw(sql, args...).Scan(&rows).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("variance rows", err)
	}
	return rows, nil
}

// GetTrendRanking ranks the products that drift most often.
func GetTrendRanking(ctx context.Context, filter TrendFilter) ([]TrendRow, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultTrendLimit
	}

	key := cacheKey("trends", filter.WarehouseId, filter.From, filter.To, filter.Limit)
	var cached []TrendRow
	if cacheGet(key, &cached) {
		return cached, nil
	}

	started := time.Now()
	rows, err := fetchVarianceRows(ctx, filter.WarehouseId, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	result := RankTrends(rows, filter.Limit)
	logSlowReport(ctx, "trends", started, map[string]any{"warehouse": filter.WarehouseId, "rows": len(rows)})

	cacheSet(key, result)
	return result, nil
}

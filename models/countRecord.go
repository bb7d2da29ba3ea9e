package models

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func init() {
	// quantities go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// CountRecord is one product line of a blind count for a warehouse on a date.
type CountRecord struct {
	ID                int                 `gorm:"primary_key" json:"id"`
	CountDate         string              `gorm:"size:10;not null;uniqueIndex:idx_count_identity,priority:1" json:"fecha"`
	WarehouseId       string              `gorm:"size:50;not null;uniqueIndex:idx_count_identity,priority:2" json:"local"`
	ProductCode       string              `gorm:"size:100;not null;uniqueIndex:idx_count_identity,priority:3" json:"codigo"`
	Name              string              `gorm:"size:255" json:"nombre"`
	Unit              string              `gorm:"size:50" json:"unidad"`
	ReferenceQuantity decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"cantidad"`
	Count1            decimal.NullDecimal `gorm:"column:count_1;type:decimal(20,4)" json:"cantidad_contada"`
	Count2            decimal.NullDecimal `gorm:"column:count_2;type:decimal(20,4)" json:"cantidad_contada_2"`
	UnitCost          decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"costo_unitario"`
	Notes             string              `gorm:"type:text" json:"observaciones"`
	CreatedAt         time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// ReferenceItem is one line of a system-of-record extract.
type ReferenceItem struct {
	ProductCode       string           `json:"codigo" binding:"required"`
	Name              string           `json:"nombre"`
	Unit              string           `json:"unidad"`
	ReferenceQuantity decimal.Decimal  `json:"cantidad"`
	UnitCost          *decimal.Decimal `json:"costo_unitario"`
}

type PurgeResult struct {
	CountsDeleted      int64 `json:"conteos_borrados"`
	AllocationsDeleted int64 `json:"asignaciones_borradas"`
}

// CountedQuantity is the second pass when present, else the first.
func (r CountRecord) CountedQuantity() decimal.NullDecimal {
	if r.Count2.Valid {
		return r.Count2
	}
	return r.Count1
}

// Variance is counted minus reference, null while nothing was counted.
func (r CountRecord) Variance() decimal.NullDecimal {
	counted := r.CountedQuantity()
	if !counted.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: counted.Decimal.Sub(r.ReferenceQuantity), Valid: true}
}

// ValuedVariance prices the variance at the unit cost captured on the record.
func (r CountRecord) ValuedVariance() decimal.Decimal {
	v := r.Variance()
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal.Mul(r.UnitCost)
}

func (r CountRecord) HasVariance() bool {
	v := r.Variance()
	return v.Valid && !v.Decimal.IsZero()
}

func validateSliceKey(date string, warehouseId string) error {
	if err := utils.ValidateDate("fecha", date); err != nil {
		return err
	}
	if strings.TrimSpace(warehouseId) == "" {
		return utils.NewValidationError("local", "is required")
	}
	return nil
}

func validateReferenceItems(items []ReferenceItem) error {
	if len(items) == 0 {
		return utils.NewValidationError("productos", "at least one item is required")
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductCode) == "" {
			return utils.NewValidationError("productos", "item %d has an empty codigo", i)
		}
		if item.UnitCost != nil && item.UnitCost.IsNegative() {
			return utils.NewValidationError("productos", "item %d has a negative costo_unitario", i)
		}
	}
	return nil
}

// UpsertReference inserts or refreshes one reference line per item. On an
// existing identity only name and reference quantity change; counts, notes
// and unit cost are kept. The whole batch commits or none of it does.
func UpsertReference(ctx context.Context, date string, warehouseId string, items []ReferenceItem) (int, error) {
	if err := validateSliceKey(date, warehouseId); err != nil {
		return 0, err
	}
	if err := validateReferenceItems(items); err != nil {
		return 0, err
	}
	date = strings.TrimSpace(date)
	warehouseId = strings.TrimSpace(warehouseId)

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "count_date"}, {Name: "warehouse_id"}, {Name: "product_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "reference_quantity", "updated_at"}),
	}

	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			for _, item := range items {
				record := CountRecord{
					CountDate:         date,
					WarehouseId:       warehouseId,
					ProductCode:       strings.TrimSpace(item.ProductCode),
					Name:              strings.TrimSpace(item.Name),
					Unit:              strings.TrimSpace(item.Unit),
					ReferenceQuantity: item.ReferenceQuantity,
					UnitCost:          utils.DereferencePtr(item.UnitCost, decimal.Zero),
				}
				if err := tx.Clauses(onConflict).Create(&record).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, utils.TranslateDBError("upsert reference", err)
	}
	invalidateReportCache()
	return len(items), nil
}

// SubmitCount overwrites pass 1 or pass 2 of a record. A null quantity clears the pass.
func SubmitCount(ctx context.Context, recordId int, quantity decimal.NullDecimal, pass int) error {
	var column string
	switch pass {
	case 1:
		column = "count_1"
	case 2:
		column = "count_2"
	default:
		return utils.NewValidationError("conteo", "must be 1 or 2")
	}
	if quantity.Valid && quantity.Decimal.IsNegative() {
		return utils.NewValidationError("cantidad_contada", "must not be negative")
	}

	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			if err := ensureCountRecord(tx, recordId); err != nil {
				return err
			}
			return tx.Model(&CountRecord{}).Where("id = ?", recordId).Update(column, quantity).Error
		})
	})
	if err != nil {
		return utils.TranslateDBError("submit count", err)
	}
	config.CountSubmissions.WithLabelValues(strconv.Itoa(pass)).Inc()
	invalidateReportCache()
	return nil
}

// SubmitNotes overwrites the free-text notes of a record; empty text clears them.
func SubmitNotes(ctx context.Context, recordId int, text string) error {
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			if err := ensureCountRecord(tx, recordId); err != nil {
				return err
			}
			return tx.Model(&CountRecord{}).Where("id = ?", recordId).Update("notes", text).Error
		})
	})
	return utils.TranslateDBError("submit notes", err)
}

func ensureCountRecord(tx *gorm.DB, recordId int) error {
	var count int64
	if err := tx.Model(&CountRecord{}).Where("id = ?", recordId).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func GetCountRecord(ctx context.Context, recordId int) (*CountRecord, error) {
	var record CountRecord
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Where("id = ?", recordId).First(&record).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("get count record", err)
	}
	return &record, nil
}

// QuerySlice returns every record of (date, warehouse) ordered by product code.
func QuerySlice(ctx context.Context, date string, warehouseId string) ([]CountRecord, error) {
	if err := validateSliceKey(date, warehouseId); err != nil {
		return nil, err
	}
	records := make([]CountRecord, 0)
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Where("count_date = ? AND warehouse_id = ?", strings.TrimSpace(date), strings.TrimSpace(warehouseId)).
			Order("product_code ASC").
			Find(&records).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("query slice", err)
	}
	return records, nil
}

// QueryRange returns the records dated within [from, to], optionally for one warehouse.
func QueryRange(ctx context.Context, from string, to string, warehouseId string) ([]CountRecord, error) {
	if err := utils.ValidateDateRange("fecha_desde", from, "fecha_hasta", to); err != nil {
		return nil, err
	}
	records := make([]CountRecord, 0)
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		query := conn.Where("count_date BETWEEN ? AND ?", strings.TrimSpace(from), strings.TrimSpace(to))
		if w := strings.TrimSpace(warehouseId); w != "" {
			query = query.Where("warehouse_id = ?", w)
		}
		return query.Order("count_date ASC, warehouse_id ASC, product_code ASC").Find(&records).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("query range", err)
	}
	return records, nil
}

// Purge deletes a whole slice: allocations first, then the records, in one transaction.
func Purge(ctx context.Context, date string, warehouseId string) (PurgeResult, error) {
	var result PurgeResult
	if err := validateSliceKey(date, warehouseId); err != nil {
		return result, err
	}
	if !utils.GetAdminKeyVerifiedFromContext(ctx) {
		return result, utils.ErrorUnauthorized
	}
	date = strings.TrimSpace(date)
	warehouseId = strings.TrimSpace(warehouseId)

	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			sliceIds := tx.Model(&CountRecord{}).Select("id").Where("count_date = ? AND warehouse_id = ?", date, warehouseId)
			allocations := tx.Where("count_record_id IN (?)", sliceIds).Delete(&VarianceAllocation{})
			if allocations.Error != nil {
				return allocations.Error
			}
			records := tx.Where("count_date = ? AND warehouse_id = ?", date, warehouseId).Delete(&CountRecord{})
			if records.Error != nil {
				return records.Error
			}
			result.AllocationsDeleted = allocations.RowsAffected
			result.CountsDeleted = records.RowsAffected
			return nil
		})
	})
	if err != nil {
		return PurgeResult{}, utils.TranslateDBError("purge slice", err)
	}
	invalidateReportCache()
	return result, nil
}

func invalidateReportCache() {
	if err := config.RemoveRedisKeysByPrefix(config.ReportCachePrefix); err != nil {
		config.LogError(config.GetLogger(), "models", "invalidateReportCache", "dropping cached reports", nil, err)
	}
}

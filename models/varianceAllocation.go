package models

import (
	"context"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VarianceAllocation attributes part of a record's discrepancy to a person.
// Allocated quantities are not required to add up to the variance.
type VarianceAllocation struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CountRecordId int             `gorm:"index;not null" json:"conteo_id"`
	CountRecord   *CountRecord    `gorm:"foreignKey:CountRecordId;constraint:OnDelete:CASCADE" json:"-"`
	PersonName    string          `gorm:"size:255;not null" json:"persona"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cantidad"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewVarianceAllocation struct {
	PersonName string          `json:"persona"`
	Quantity   decimal.Decimal `json:"cantidad"`
}

// keepValidAllocations trims names and drops blank names and non-positive quantities.
func keepValidAllocations(recordId int, input []NewVarianceAllocation) []VarianceAllocation {
	result := make([]VarianceAllocation, 0, len(input))
	for _, in := range input {
		name := strings.TrimSpace(in.PersonName)
		if name == "" || !in.Quantity.IsPositive() {
			continue
		}
		result = append(result, VarianceAllocation{
			CountRecordId: recordId,
			PersonName:    name,
			Quantity:      in.Quantity,
		})
	}
	return result
}

// Allocate replaces every allocation of a record with the valid entries of input,
// preserving input order. Invalid entries are dropped silently. The allocated
// total is not checked against the record variance.
func Allocate(ctx context.Context, recordId int, input []NewVarianceAllocation) ([]VarianceAllocation, error) {
	allocations := keepValidAllocations(recordId, input)

	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			if err := ensureCountRecord(tx, recordId); err != nil {
				return err
			}
			if err := tx.Where("count_record_id = ?", recordId).Delete(&VarianceAllocation{}).Error; err != nil {
				return err
			}
			// one insert per row keeps ids in input order on every driver
			for i := range allocations {
				if err := tx.Create(&allocations[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, utils.TranslateDBError("allocate variance", err)
	}
	return allocations, nil
}

// GetAllocations returns the allocations of a slice keyed by record id.
// Records without allocations are absent from the map.
func GetAllocations(ctx context.Context, date string, warehouseId string) (map[int][]VarianceAllocation, error) {
	if err := validateSliceKey(date, warehouseId); err != nil {
		return nil, err
	}
	var rows []VarianceAllocation
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		sliceIds := conn.Model(&CountRecord{}).Select("id").
			Where("count_date = ? AND warehouse_id = ?", strings.TrimSpace(date), strings.TrimSpace(warehouseId))
		return conn.Where("count_record_id IN (?)", sliceIds).
			Order("count_record_id ASC, id ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("get allocations", err)
	}

	result := make(map[int][]VarianceAllocation)
	for _, row := range rows {
		result[row.CountRecordId] = append(result[row.CountRecordId], row)
	}
	return result, nil
}

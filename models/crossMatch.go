package models

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CrossMatchExecution is one comparison run of a physical take against a
// system-of-record extract for one warehouse and take date.
type CrossMatchExecution struct {
	ID                int                `gorm:"primary_key" json:"id"`
	WarehouseId       string             `gorm:"size:50;index:idx_cross_match_slice,priority:1;not null" json:"warehouse_id"`
	TakeDate          string             `gorm:"size:10;index:idx_cross_match_slice,priority:2;not null" json:"take_date"`
	Status            ExecutionStatus    `gorm:"size:20;not null" json:"status"`
	TotalPhysical     int                `gorm:"not null;default:0" json:"total_physical"`
	TotalReference    int                `gorm:"not null;default:0" json:"total_reference"`
	TotalMatched      int                `gorm:"not null;default:0" json:"total_matched"`
	TotalWithVariance int                `gorm:"not null;default:0" json:"total_with_variance"`
	ErrorMessage      string             `gorm:"type:text" json:"error_message,omitempty"`
	TriggeredBy       string             `gorm:"size:100" json:"triggered_by"`
	DetectedAt        time.Time          `gorm:"not null" json:"detected_at"`
	CompletedAt       *time.Time         `json:"completed_at"`
	Details           []CrossMatchDetail `gorm:"foreignKey:ExecutionId;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

// CrossMatchDetail is one product of an execution. Exactly one quantity is
// null when the product appears on a single side.
type CrossMatchDetail struct {
	ID                int                 `gorm:"primary_key" json:"id"`
	ExecutionId       int                 `gorm:"index;not null" json:"execution_id"`
	ProductCode       string              `gorm:"size:100;not null" json:"product_code"`
	Name              string              `gorm:"size:255" json:"name"`
	Category          string              `gorm:"size:100" json:"category"`
	Unit              string              `gorm:"size:50" json:"unit"`
	PhysicalQuantity  decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"physical_quantity"`
	ReferenceQuantity decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"reference_quantity"`
	Variance          decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"variance"`
	UnitCost          decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost"`
	ValuedVariance    decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"valued_variance"`
	ImportanceTier    string              `gorm:"size:5" json:"importance_tier"`
	Origin            MatchOrigin         `gorm:"size:20;not null" json:"origin"`
}

// PhysicalLine is one row of a physical take extract.
type PhysicalLine struct {
	ProductCode string          `json:"code" binding:"required"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ReferenceLine is one row of the external system-of-record extract.
type ReferenceLine struct {
	ProductCode    string          `json:"code" binding:"required"`
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ImportanceTier string          `json:"importance_tier"`
}

type CrossMatchResult struct {
	Details           []CrossMatchDetail
	TotalPhysical     int
	TotalReference    int
	TotalMatched      int
	TotalWithVariance int
}

// MatchExtracts joins both extracts by trimmed product code. A code repeated on
// one side keeps its last line. Details come out in product code order.
func MatchExtracts(physical []PhysicalLine, reference []ReferenceLine) CrossMatchResult {
	result := CrossMatchResult{
		TotalPhysical:  len(physical),
		TotalReference: len(reference),
	}

	physicalByCode := make(map[string]PhysicalLine, len(physical))
	referenceByCode := make(map[string]ReferenceLine, len(reference))
	var codes []string
	for _, line := range physical {
		code := strings.TrimSpace(line.ProductCode)
		physicalByCode[code] = line
		codes = append(codes, code)
	}
	for _, line := range reference {
		code := strings.TrimSpace(line.ProductCode)
		referenceByCode[code] = line
		codes = append(codes, code)
	}
	codes = utils.UniqueSlice(codes)
	sort.Strings(codes)

	result.Details = make([]CrossMatchDetail, 0, len(codes))
	for _, code := range codes {
		p, inPhysical := physicalByCode[code]
		r, inReference := referenceByCode[code]

		detail := CrossMatchDetail{ProductCode: code}
		switch {
		case inPhysical && inReference:
			variance := p.Quantity.Sub(r.Quantity)
			detail.Origin = MatchOriginMatched
			detail.PhysicalQuantity = decimal.NewNullDecimal(p.Quantity)
			detail.ReferenceQuantity = decimal.NewNullDecimal(r.Quantity)
			detail.Variance = decimal.NewNullDecimal(variance)
			detail.UnitCost = r.UnitCost
			detail.ValuedVariance = variance.Mul(r.UnitCost)
			result.TotalMatched++
			if !variance.IsZero() {
				result.TotalWithVariance++
			}
		case inPhysical:
			detail.Origin = MatchOriginPhysicalOnly
			detail.PhysicalQuantity = decimal.NewNullDecimal(p.Quantity)
			detail.ValuedVariance = decimal.Zero
		default:
			detail.Origin = MatchOriginReferenceOnly
			detail.ReferenceQuantity = decimal.NewNullDecimal(r.Quantity)
			detail.UnitCost = r.UnitCost
			detail.ValuedVariance = decimal.Zero
		}

		detail.Name = strings.TrimSpace(p.Name)
		if detail.Name == "" {
			detail.Name = strings.TrimSpace(r.Name)
		}
		detail.Category = strings.TrimSpace(p.Category)
		detail.Unit = strings.TrimSpace(p.Unit)
		detail.ImportanceTier = strings.ToUpper(strings.TrimSpace(r.ImportanceTier))

		result.Details = append(result.Details, detail)
	}
	return result
}

// SortDetails orders details by absolute valued variance descending, then code ascending.
func SortDetails(details []CrossMatchDetail) {
	sort.SliceStable(details, func(i, j int) bool {
		ai, aj := details[i].ValuedVariance.Abs(), details[j].ValuedVariance.Abs()
		if c := ai.Cmp(aj); c != 0 {
			return c > 0
		}
		return details[i].ProductCode < details[j].ProductCode
	})
}

func ValidateCrossMatchInput(warehouseId string, takeDate string, physical []PhysicalLine, reference []ReferenceLine) error {
	if strings.TrimSpace(warehouseId) == "" {
		return utils.NewValidationError("warehouse_id", "is required")
	}
	if err := utils.ValidateDate("take_date", takeDate); err != nil {
		return err
	}
	if len(physical) == 0 && len(reference) == 0 {
		return utils.NewValidationError("physical", "both extracts are empty")
	}
	for i, line := range physical {
		if strings.TrimSpace(line.ProductCode) == "" {
			return utils.NewValidationError("physical", "line %d has an empty code", i)
		}
	}
	for i, line := range reference {
		if strings.TrimSpace(line.ProductCode) == "" {
			return utils.NewValidationError("reference", "line %d has an empty code", i)
		}
		if line.UnitCost.IsNegative() {
			return utils.NewValidationError("reference", "line %d has a negative unit_cost", i)
		}
	}
	return nil
}

func GetCrossMatchExecution(ctx context.Context, id int) (*CrossMatchExecution, error) {
	var execution CrossMatchExecution
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Where("id = ?", id).First(&execution).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("get cross match execution", err)
	}
	return &execution, nil
}

// ListCrossMatchExecutions returns the newest executions first, optionally for one warehouse.
func ListCrossMatchExecutions(ctx context.Context, warehouseId string, limit int) ([]CrossMatchExecution, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	executions := make([]CrossMatchExecution, 0)
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		query := conn.Model(&CrossMatchExecution{})
		if w := strings.TrimSpace(warehouseId); w != "" {
			query = query.Where("warehouse_id = ?", w)
		}
		return query.Order("detected_at DESC, id DESC").Limit(limit).Find(&executions).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("list cross match executions", err)
	}
	return executions, nil
}

// ListCrossMatchDetails returns details of an execution ordered by absolute
// valued variance, optionally filtered by origin.
func ListCrossMatchDetails(ctx context.Context, executionId int, origin MatchOrigin) ([]CrossMatchDetail, error) {
	if origin != "" && !origin.IsValid() {
		return nil, utils.NewValidationError("origin", "unknown origin %q", origin)
	}
	details := make([]CrossMatchDetail, 0)
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		var count int64
		if err := conn.Model(&CrossMatchExecution{}).Where("id = ?", executionId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.ErrorRecordNotFound
		}
		query := conn.Where("execution_id = ?", executionId)
		if origin != "" {
			query = query.Where("origin = ?", origin)
		}
		return query.Order("ABS(valued_variance) DESC, product_code ASC").Find(&details).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("list cross match details", err)
	}
	return details, nil
}

// DeleteCrossMatchExecution removes an execution together with its details.
func DeleteCrossMatchExecution(ctx context.Context, id int) (*CrossMatchExecution, error) {
	var execution CrossMatchExecution
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", id).First(&execution).Error; err != nil {
				return err
			}
			if err := tx.Where("execution_id = ?", id).Delete(&CrossMatchDetail{}).Error; err != nil {
				return err
			}
			return tx.Delete(&CrossMatchExecution{}, id).Error
		})
	})
	if err != nil {
		return nil, utils.TranslateDBError("delete cross match execution", err)
	}
	return &execution, nil
}

package workflow

import (
	"context"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("inventario-ciego/workflow")

const crossMatchLockTTL = 2 * time.Minute

type CrossMatchInput struct {
	WarehouseId string                 `json:"warehouse_id" binding:"required"`
	TakeDate    string                 `json:"take_date" binding:"required"`
	Physical    []models.PhysicalLine  `json:"physical"`
	Reference   []models.ReferenceLine `json:"reference"`
}

// RunCrossMatch compares both extracts and persists the outcome as a new execution.
//
// The execution row is committed as pending before any detail is written. Details,
// counters and the completed status then land in one transaction. When that
// transaction fails the execution is marked failed and returned with a nil error;
// callers inspect Status. A non-nil error means no execution was recorded.
func RunCrossMatch(ctx context.Context, logger *logrus.Logger, input CrossMatchInput) (*models.CrossMatchExecution, error) {
	ctx, span := tracer.Start(ctx, "RunCrossMatch", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("warehouse_id", input.WarehouseId),
		attribute.String("take_date", input.TakeDate),
		attribute.Int("physical_lines", len(input.Physical)),
		attribute.Int("reference_lines", len(input.Reference)),
	)

	if err := models.ValidateCrossMatchInput(input.WarehouseId, input.TakeDate, input.Physical, input.Reference); err != nil {
		return nil, err
	}

	release, err := utils.ObtainLock(ctx, utils.LockKey("crossmatch", input.WarehouseId, input.TakeDate), crossMatchLockTTL, "crossMatchWorkflow.go", "RunCrossMatch")
	if err != nil {
		return nil, err
	}
	defer release()

	result := models.MatchExtracts(input.Physical, input.Reference)
	triggeredBy, _ := utils.GetUsernameFromContext(ctx)

	execution := models.CrossMatchExecution{
		WarehouseId: input.WarehouseId,
		TakeDate:    input.TakeDate,
		Status:      models.ExecutionStatusPending,
		TriggeredBy: triggeredBy,
		DetectedAt:  time.Now().UTC(),
	}

	err = config.WithConn(ctx, func(conn *gorm.DB) error {
		if err := conn.Create(&execution).Error; err != nil {
			return utils.TranslateDBError("create cross match execution", err)
		}
		span.SetAttributes(attribute.Int("execution_id", execution.ID))

		persistErr := persistCrossMatch(conn, &execution, result)
		if persistErr == nil {
			return nil
		}

		config.LogError(logger, "crossMatchWorkflow.go", "RunCrossMatch", "persisting cross match details", execution.ID, persistErr)
		span.RecordError(persistErr)
		span.SetStatus(codes.Error, "cross match failed")

		execution.Status = models.ExecutionStatusFailed
		execution.ErrorMessage = utils.TranslateDBError("persist cross match details", persistErr).Error()
		execution.CompletedAt = nil
		execution.TotalPhysical, execution.TotalReference = 0, 0
		execution.TotalMatched, execution.TotalWithVariance = 0, 0
		execution.Details = nil
		return conn.Model(&models.CrossMatchExecution{}).Where("id = ?", execution.ID).Updates(map[string]interface{}{
			"status":        models.ExecutionStatusFailed,
			"error_message": execution.ErrorMessage,
		}).Error
	})
	if err != nil {
		span.RecordError(err)
		if execution.ID == 0 {
			return nil, utils.TranslateDBError("run cross match", err)
		}
		// the failed mark itself could not be written; the row stays pending
		config.LogError(logger, "crossMatchWorkflow.go", "RunCrossMatch", "marking execution failed", execution.ID, err)
		return &execution, nil
	}

	config.CrossMatchRuns.WithLabelValues(string(execution.Status)).Inc()
	config.LogInfo(logger, "crossMatchWorkflow.go", "RunCrossMatch", "cross match finished", map[string]any{
		"execution_id": execution.ID,
		"status":       execution.Status,
		"matched":      execution.TotalMatched,
		"variances":    execution.TotalWithVariance,
	})
	return &execution, nil
}

func persistCrossMatch(conn *gorm.DB, execution *models.CrossMatchExecution, result models.CrossMatchResult) error {
	details := result.Details
	for i := range details {
		details[i].ExecutionId = execution.ID
	}
	completedAt := time.Now().UTC()

	return conn.Transaction(func(tx *gorm.DB) error {
		if len(details) > 0 {
			if err := tx.CreateInBatches(&details, 200).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.CrossMatchExecution{}).Where("id = ?", execution.ID).Updates(map[string]interface{}{
			"status":              models.ExecutionStatusCompleted,
			"total_physical":      result.TotalPhysical,
			"total_reference":     result.TotalReference,
			"total_matched":       result.TotalMatched,
			"total_with_variance": result.TotalWithVariance,
			"completed_at":        completedAt,
		}).Error; err != nil {
			return err
		}

		execution.Status = models.ExecutionStatusCompleted
		execution.TotalPhysical = result.TotalPhysical
		execution.TotalReference = result.TotalReference
		execution.TotalMatched = result.TotalMatched
		execution.TotalWithVariance = result.TotalWithVariance
		execution.CompletedAt = &completedAt
		execution.Details = details
		return nil
	})
}

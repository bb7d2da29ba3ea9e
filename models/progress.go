package models

import (
	"context"
	"math"
)

// SliceMetrics are the counters of one (date, warehouse) slice.
type SliceMetrics struct {
	Total          int `json:"total_productos"`
	Counted        int `json:"total_contados"`
	WithVariance   int `json:"total_con_diferencia"`
	WithSecondPass int `json:"total_segundo_conteo"`
}

type SliceProgress struct {
	SliceMetrics
	State      SliceState `json:"estado"`
	Percentage int        `json:"porcentaje"`
}

// MetricsOf derives slice counters. Counted looks at the first pass only.
func MetricsOf(records []CountRecord) SliceMetrics {
	m := SliceMetrics{Total: len(records)}
	for _, r := range records {
		if r.Count1.Valid {
			m.Counted++
		}
		if r.Count2.Valid {
			m.WithSecondPass++
		}
		if r.HasVariance() {
			m.WithVariance++
		}
	}
	return m
}

// ClassifyProgress maps slice counters to a state and a completion percentage.
// Any second pass marks the slice complete, even with first-pass gaps.
// An empty slice reports complete at 0%.
func ClassifyProgress(m SliceMetrics) SliceProgress {
	p := SliceProgress{SliceMetrics: m}
	if m.Total > 0 {
		// rounds half to even
		p.Percentage = int(math.RoundToEven(float64(m.Counted) * 100 / float64(m.Total)))
	}
	switch {
	case m.WithSecondPass > 0:
		p.State = SliceStateComplete
	case m.Counted == m.Total && m.WithVariance == 0:
		p.State = SliceStateComplete
	case m.Counted > 0:
		p.State = SliceStateInProgress
	default:
		p.State = SliceStatePending
	}
	return p
}

// GetSliceProgress classifies the current state of one slice.
func GetSliceProgress(ctx context.Context, date string, warehouseId string) (SliceProgress, error) {
	records, err := QuerySlice(ctx, date, warehouseId)
	if err != nil {
		return SliceProgress{}, err
	}
	return ClassifyProgress(MetricsOf(records)), nil
}

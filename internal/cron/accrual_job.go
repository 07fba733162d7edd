package cron

import (
	"context"
	"fmt"

	"github.com/campusmart/campusmart-backend/pkg/logger"
)

type accrualRunner interface {
	AccrueActive(ctx context.Context) (int, error)
}

// RentalAccrualJobParams configure the daily rental accrual job.
type RentalAccrualJobParams struct {
	Logger  *logger.Logger
	Rentals accrualRunner
}

// NewRentalAccrualJob builds the cron job that advances the accrual of every
// active, paid rental once per cycle.
func NewRentalAccrualJob(params RentalAccrualJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Rentals == nil {
		return nil, fmt.Errorf("rentals service required")
	}
	return &rentalAccrualJob{
		logg:    params.Logger,
		rentals: params.Rentals,
	}, nil
}

type rentalAccrualJob struct {
	logg    *logger.Logger
	rentals accrualRunner
}

func (j *rentalAccrualJob) Name() string { return "rental-accrual" }

func (j *rentalAccrualJob) Run(ctx context.Context) error {
	updated, err := j.rentals.AccrueActive(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{"updated": updated})
	if err != nil {
		// partial progress is still reported before surfacing the failures
		j.logg.Info(logCtx, "rental accrual finished with errors")
		return fmt.Errorf("rental accrual: %w", err)
	}
	j.logg.Info(logCtx, "rental accrual complete")
	return nil
}

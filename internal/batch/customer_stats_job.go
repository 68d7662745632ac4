package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"customer-service/internal/domain/customer"
	"customer-service/internal/infrastructure/monitoring"
)

// nullDataStateLabel stands in for records whose data state was cleared by a
// full replacement.
const nullDataStateLabel = "NONE"

type StateCounter interface {
	CountByState(ctx context.Context) ([]customer.StateCount, error)
}

// CustomerStatsJob refreshes the customers_total gauge from the store.
type CustomerStatsJob struct {
	counter StateCounter
	logger  *slog.Logger
}

func NewCustomerStatsJob(counter StateCounter, logger *slog.Logger) *CustomerStatsJob {
	if counter == nil || logger == nil {
		panic("CustomerStatsJob dependencies cannot be nil")
	}
	return &CustomerStatsJob{
		counter: counter,
		logger:  logger.With("job", "CustomerStats"),
	}
}

func (j *CustomerStatsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.DebugContext(ctx, "Starting customer stats job.")

	counts, err := j.counter.CountByState(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to count customers by state, keeping previous snapshot.", slog.Any("error", err))
		return fmt.Errorf("cannot refresh customer stats: %w", err)
	}

	totals := make(map[[2]string]float64, len(counts))
	var grandTotal, visible int64
	for _, c := range counts {
		state := string(c.DataState)
		if state == "" {
			state = nullDataStateLabel
		}
		totals[[2]string{state, strconv.FormatBool(c.Active)}] += float64(c.Total)
		grandTotal += c.Total
		if c.DataState == customer.DataStateActive {
			visible += c.Total
		}
	}
	monitoring.SetCustomerTotals(totals)

	j.logger.InfoContext(ctx, "Customer stats job finished.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int64("total_customers", grandTotal),
		slog.Int64("visible_customers", visible),
		slog.Int("series", len(totals)),
	)
	return nil
}

package services

import (
	"context"
	"errors"
	"time"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/events"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/period"
	"spendwise/internal/recurrence"
	"spendwise/internal/store"
)

// conversionService realizes upcoming expenses into expenses. Every
// conversion is one store transaction; events are published only after it
// commits.
type conversionService struct {
	store     store.Store
	publisher events.Publisher
	audit     AuditServicer
	loc       *time.Location
	now       func() time.Time
}

// NewConversionService creates a new ConversionServicer. Recurrence dates are
// computed in loc; a nil publisher disables events.
func NewConversionService(st store.Store, publisher events.Publisher, audit AuditServicer, loc *time.Location) ConversionServicer {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &conversionService{
		store:     st,
		publisher: publisher,
		audit:     audit,
		loc:       loc,
		now:       time.Now,
	}
}

// ConvertToExpense records the expense for a pending occurrence, marks it
// paid and schedules the next occurrence of a recurring series, atomically.
func (s *conversionService) ConvertToExpense(ctx context.Context, id string) (*RealizedConversion, error) {
	result, err := s.convert(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, result)
	return result, nil
}

func (s *conversionService) convert(ctx context.Context, id string) (*RealizedConversion, error) {
	var result *RealizedConversion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		upcoming, err := tx.GetUpcomingExpense(ctx, id)
		if err != nil {
			return err
		}

		ok, err := tx.CategoryExists(ctx, upcoming.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "category of upcoming expense no longer exists")
		}

		// Calendar arithmetic must see the due date as the user does.
		row := *upcoming
		row.DueDate = row.DueDate.In(s.loc)

		r, err := recurrence.Realize(row)
		if err != nil {
			return err
		}

		expense := r.Expense
		if err := tx.CreateExpense(ctx, &expense); err != nil {
			return err
		}

		if err := tx.UpdateUpcomingExpenseStatus(ctx, upcoming.ID, upcoming.Status, upcoming.Version, models.UpcomingStatusPaid); err != nil {
			return err
		}

		paid := r.Paid
		paid.DueDate = upcoming.DueDate
		result = &RealizedConversion{Upcoming: &paid, Expense: &expense}

		if r.Next != nil {
			next := *r.Next
			if err := tx.CreateUpcomingExpense(ctx, &next); err != nil {
				return err
			}
			result.Next = &next
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return result, nil
}

func (s *conversionService) publish(ctx context.Context, result *RealizedConversion) {
	event := events.ExpenseRealizedEvent{
		UpcomingExpenseID: result.Upcoming.ID,
		ExpenseID:         result.Expense.ID,
		Amount:            result.Expense.Amount,
		DueDate:           result.Upcoming.DueDate,
		RealizedAt:        s.now().UTC(),
	}
	if result.Next != nil {
		event.NextOccurrenceID = result.Next.ID
	}

	if err := s.publisher.PublishExpenseRealized(ctx, event); err != nil {
		logger.Get().Warnw("failed to publish expense realized event",
			"error", err,
			"upcoming_expense_id", result.Upcoming.ID,
			"expense_id", result.Expense.ID,
		)
	}
}

// ProcessAutoConvertDue converts every pending auto-convert occurrence due on
// or before the start of asOf's day, oldest first. Items due later that day
// wait for the next sweep. A failing item is recorded
// and the sweep moves on; only failing to list candidates is an error.
func (s *conversionService) ProcessAutoConvertDue(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	asOf = asOf.In(s.loc)
	log := logger.Named("sweep")

	candidates, err := s.store.ListAutoConvertDue(ctx, period.StartOfDay(asOf))
	if err != nil {
		return nil, err
	}

	result := &SweepResult{
		AsOf:      period.StartOfDay(asOf),
		Converted: []RealizedConversion{},
		Failed:    []SweepFailure{},
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, SweepFailure{
				ID:      candidate.ID,
				Code:    apperrors.ErrInternalServer.Code,
				Message: "sweep cancelled: " + err.Error(),
			})
			continue
		}

		converted, err := s.convert(ctx, candidate.ID)
		if err != nil {
			failure := SweepFailure{ID: candidate.ID, Code: apperrors.ErrInternalServer.Code, Message: err.Error()}
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				failure.Code = appErr.Code
				failure.Message = appErr.Message
			}
			log.Warnw("auto-convert failed", "upcoming_expense_id", candidate.ID, "code", failure.Code, "error", err)
			result.Failed = append(result.Failed, failure)
			continue
		}

		s.publish(ctx, converted)
		if s.audit != nil {
			s.audit.Log(ctx, "AUTO_CONVERT_UPCOMING_EXPENSE", "upcoming_expense", converted.Upcoming.ID, "",
				conversionChanges(converted))
		}
		result.Converted = append(result.Converted, *converted)
	}

	log.Infow("auto-convert sweep finished",
		"as_of", result.AsOf.Format(time.DateOnly),
		"candidates", len(candidates),
		"converted", len(result.Converted),
		"failed", len(result.Failed),
	)
	return result, nil
}

// MarkStatus moves an occurrence through the status machine without creating
// an expense.
func (s *conversionService) MarkStatus(ctx context.Context, id string, status models.UpcomingStatus) (*models.UpcomingExpense, error) {
	var updated *models.UpcomingExpense

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		upcoming, err := tx.GetUpcomingExpense(ctx, id)
		if err != nil {
			return err
		}
		if err := recurrence.Transition(upcoming.Status, status); err != nil {
			return err
		}
		if err := tx.UpdateUpcomingExpenseStatus(ctx, upcoming.ID, upcoming.Status, upcoming.Version, status); err != nil {
			return err
		}

		upcoming.Status = status
		upcoming.Version++
		updated = upcoming
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return updated, nil
}

// conversionChanges is the audit payload describing a conversion.
func conversionChanges(r *RealizedConversion) map[string]interface{} {
	changes := map[string]interface{}{
		"expense_id": r.Expense.ID,
		"amount":     r.Expense.Amount.String(),
	}
	if r.Next != nil {
		changes["next_occurrence_id"] = r.Next.ID
		changes["next_due_date"] = r.Next.DueDate.Format(time.DateOnly)
	}
	return changes
}

// asAppError passes AppErrors through and wraps anything else, such as a
// failed commit, as an internal error.
func asAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// Package sweep holds the scheduled billing jobs: flagging overdue invoices
// and reminding arena admins of invoices about to fall due.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReminderLeadDays is how far ahead of the due date the reminder goes out.
const ReminderLeadDays = 3

var ErrSweepFailed = errors.New("sweep failed")

// Summary is the result of one sweep run, returned as JSON by the functions endpoints.
type Summary struct {
	Success       bool   `json:"success"`
	Processed     int    `json:"processed"`
	Updated       int    `json:"updated"`
	Suspended     int    `json:"suspended"`
	Notifications int    `json:"notifications"`
	Errors        int    `json:"errors"`
	Message       string `json:"message"`
}

func (s Summary) metadata() billing.Metadata {
	return billing.Metadata{
		"processed":     s.Processed,
		"updated":       s.Updated,
		"suspended":     s.Suspended,
		"notifications": s.Notifications,
		"errors":        s.Errors,
	}
}

type Service struct {
	db            *sqlx.DB
	billing       *store.BillingStore
	notifications *store.NotificationStore
	location      *time.Location
	now           func() time.Time
}

func NewService(db *sqlx.DB, billingStore *store.BillingStore, notificationStore *store.NotificationStore, location *time.Location) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		db:            db,
		billing:       billingStore,
		notifications: notificationStore,
		location:      location,
		now:           time.Now,
	}
}

// today is the current calendar day in the configured location.
func (s *Service) today() time.Time {
	y, m, d := s.now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}

// RunOverdue marks every pending invoice whose due date has passed as overdue
// and suspends the owning arena if it is still active. Admins are notified
// once per suspension. A failing invoice is logged and skipped.
func (s *Service) RunOverdue(ctx context.Context) (Summary, error) {
	today := s.today().Format(billing.DateLayout)

	invoices, err := s.billing.GetPendingInvoicesDueBefore(ctx, today)
	if err != nil {
		slog.Error("Failed to list overdue invoices", "error", err)
		return Summary{Message: "failed to list overdue invoices"}, fmt.Errorf("%w: %w", ErrSweepFailed, err)
	}

	summary := Summary{Success: true, Processed: len(invoices)}
	for _, inv := range invoices {
		if err := s.processOverdue(ctx, inv, &summary); err != nil {
			summary.Errors++
			slog.Error("Failed to process overdue invoice", "invoice_id", inv.ID, "arena_id", inv.ArenaID, "error", err)
		}
	}

	summary.Message = fmt.Sprintf("%d invoices marked overdue, %d arenas suspended", summary.Updated, summary.Suspended)
	s.recordActivity(ctx, "overdue_sweep", summary)
	slog.Info("Overdue sweep finished", "date", today, "processed", summary.Processed, "updated", summary.Updated,
		"suspended", summary.Suspended, "notifications", summary.Notifications, "errors", summary.Errors)
	return summary, nil
}

func (s *Service) processOverdue(ctx context.Context, inv billing.Invoice, summary *Summary) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	billingTx := s.billing.WithTx(tx)

	updated, err := billingTx.MarkInvoiceOverdue(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to mark invoice overdue: %w", err)
	}
	if !updated {
		// Paid or cancelled since the listing
		return nil
	}

	suspended, err := billingTx.SuspendArena(ctx, inv.ArenaID)
	if err != nil {
		return fmt.Errorf("failed to suspend arena: %w", err)
	}

	var notifications []billing.Notification
	if suspended {
		arena, err := billingTx.GetArena(ctx, inv.ArenaID)
		if err != nil {
			return fmt.Errorf("failed to get arena: %w", err)
		}
		notifications, err = s.notifyAdmins(ctx, billingTx, inv.ArenaID, func(adminID uuid.UUID) billing.Notification {
			return suspensionNotice(adminID, arena, inv)
		})
		if err != nil {
			return err
		}
		if err := s.notifications.WithTx(tx).CreateNotifications(ctx, notifications); err != nil {
			return fmt.Errorf("failed to create notifications: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	summary.Updated++
	if suspended {
		summary.Suspended++
	}
	summary.Notifications += len(notifications)
	return nil
}

// RunReminders notifies arena admins about pending invoices due exactly
// ReminderLeadDays from today. Each invoice is reminded at most once per day.
func (s *Service) RunReminders(ctx context.Context) (Summary, error) {
	today := s.today()
	todayKey := today.Format(billing.DateLayout)
	target := today.AddDate(0, 0, ReminderLeadDays).Format(billing.DateLayout)

	invoices, err := s.billing.GetPendingInvoicesDueOn(ctx, target)
	if err != nil {
		slog.Error("Failed to list invoices due soon", "error", err)
		return Summary{Message: "failed to list invoices due soon"}, fmt.Errorf("%w: %w", ErrSweepFailed, err)
	}

	summary := Summary{Success: true, Processed: len(invoices)}
	for _, inv := range invoices {
		if err := s.processReminder(ctx, inv, todayKey, &summary); err != nil {
			summary.Errors++
			slog.Error("Failed to send invoice reminder", "invoice_id", inv.ID, "arena_id", inv.ArenaID, "error", err)
		}
	}

	summary.Message = fmt.Sprintf("%d reminders sent for invoices due on %s", summary.Updated, target)
	s.recordActivity(ctx, "reminder_sweep", summary)
	slog.Info("Reminder sweep finished", "due_date", target, "processed", summary.Processed, "reminded", summary.Updated,
		"notifications", summary.Notifications, "errors", summary.Errors)
	return summary, nil
}

func (s *Service) processReminder(ctx context.Context, inv billing.Invoice, todayKey string, summary *Summary) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	billingTx := s.billing.WithTx(tx)

	fresh, err := billingTx.RecordReminder(ctx, inv.ID, todayKey)
	if err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}
	if !fresh {
		return nil
	}

	notifications, err := s.notifyAdmins(ctx, billingTx, inv.ArenaID, func(adminID uuid.UUID) billing.Notification {
		return reminderNotice(adminID, inv)
	})
	if err != nil {
		return err
	}
	if err := s.notifications.WithTx(tx).CreateNotifications(ctx, notifications); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	summary.Updated++
	summary.Notifications += len(notifications)
	return nil
}

func (s *Service) notifyAdmins(ctx context.Context, billingTx *store.BillingStore, arenaID uuid.UUID, build func(uuid.UUID) billing.Notification) ([]billing.Notification, error) {
	adminIDs, err := billingTx.GetArenaAdminIDs(ctx, arenaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get arena admins: %w", err)
	}

	notifications := make([]billing.Notification, 0, len(adminIDs))
	for _, id := range adminIDs {
		notifications = append(notifications, build(id))
	}
	return notifications, nil
}

func (s *Service) recordActivity(ctx context.Context, action string, summary Summary) {
	if err := s.notifications.RecordActivity(ctx, action, summary.metadata()); err != nil {
		slog.Error("Failed to record sweep activity", "action", action, "error", err)
	}
}

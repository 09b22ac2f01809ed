package store

import (
	"context"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BillingStore covers arenas, invoices and reminder bookkeeping. WithTx
// returns a copy bound to a transaction.
type BillingStore struct {
	q querier
}

func NewBillingStore(db *sqlx.DB) *BillingStore {
	return &BillingStore{q: db}
}

func (s *BillingStore) WithTx(tx *sqlx.Tx) *BillingStore {
	return &BillingStore{q: tx}
}

func (s *BillingStore) CreateArena(ctx context.Context, arena *billing.Arena) error {
	_, err := s.q.NamedExecContext(ctx, "INSERT INTO arenas (id, name, status) VALUES (:id, :name, :status)", arena)
	return err
}

func (s *BillingStore) GetArena(ctx context.Context, id uuid.UUID) (*billing.Arena, error) {
	var arena billing.Arena
	if err := s.q.GetContext(ctx, &arena, "SELECT * FROM arenas WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &arena, nil
}

// SuspendArena flips an active arena to suspended. It reports false when the
// arena was not active, so callers notify only once.
func (s *BillingStore) SuspendArena(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.q.ExecContext(ctx, "UPDATE arenas SET status = ? WHERE id = ? AND status = ?", billing.ArenaSuspended, id, billing.ArenaActive)
	return affectedOne(res, err)
}

func (s *BillingStore) GetArenaAdminIDs(ctx context.Context, arenaID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.q.SelectContext(ctx, &ids, "SELECT user_id FROM arena_members WHERE arena_id = ? AND role = ? ORDER BY created_at ASC, user_id ASC", arenaID, billing.RoleAdmin)
	return ids, err
}

func (s *BillingStore) CreateInvoice(ctx context.Context, invoice *billing.Invoice) error {
	_, err := s.q.NamedExecContext(ctx, `INSERT INTO invoices (id, arena_id, amount_cents, due_date, status, payment_method)
		VALUES (:id, :arena_id, :amount_cents, :due_date, :status, :payment_method)`, invoice)
	return err
}

func (s *BillingStore) GetInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := s.q.GetContext(ctx, &invoice, "SELECT * FROM invoices WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetPendingInvoicesDueBefore lists pending invoices whose due date is strictly before date.
func (s *BillingStore) GetPendingInvoicesDueBefore(ctx context.Context, date string) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	err := s.q.SelectContext(ctx, &invoices, "SELECT * FROM invoices WHERE status = ? AND due_date < ? ORDER BY due_date ASC, rowid ASC", billing.InvoicePending, date)
	return invoices, err
}

func (s *BillingStore) GetPendingInvoicesDueOn(ctx context.Context, date string) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	err := s.q.SelectContext(ctx, &invoices, "SELECT * FROM invoices WHERE status = ? AND due_date = ? ORDER BY rowid ASC", billing.InvoicePending, date)
	return invoices, err
}

// MarkInvoiceOverdue applies pending -> overdue and reports whether it did.
func (s *BillingStore) MarkInvoiceOverdue(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.q.ExecContext(ctx, "UPDATE invoices SET status = ? WHERE id = ? AND status = ?", billing.InvoiceOverdue, id, billing.InvoicePending)
	return affectedOne(res, err)
}

// RecordReminder stores the (invoice, day) dedup key. It reports false when a
// reminder for that invoice was already sent on that day.
func (s *BillingStore) RecordReminder(ctx context.Context, invoiceID uuid.UUID, date string) (bool, error) {
	res, err := s.q.ExecContext(ctx, "INSERT OR IGNORE INTO invoice_reminders (invoice_id, reminder_date) VALUES (?, ?)", invoiceID, date)
	return affectedOne(res, err)
}

package sweep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/AdamBeresnev/arena-manager/internal/dbtest"
	"github.com/AdamBeresnev/arena-manager/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saoPaulo = time.FixedZone("BRT", -3*60*60)

type fixture struct {
	db            *sqlx.DB
	billing       *store.BillingStore
	notifications *store.NotificationStore
	service       *Service
	today         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	billingStore := store.NewBillingStore(db)
	notificationStore := store.NewNotificationStore(db)
	service := NewService(db, billingStore, notificationStore, saoPaulo)

	// 01:30 UTC is still the previous day in São Paulo
	service.now = func() time.Time { return time.Date(2026, 10, 18, 1, 30, 0, 0, time.UTC) }

	return &fixture{
		db:            db,
		billing:       billingStore,
		notifications: notificationStore,
		service:       service,
		today:         time.Date(2026, 10, 17, 0, 0, 0, 0, saoPaulo),
	}
}

func (f *fixture) invoice(t *testing.T, arenaID uuid.UUID, dueInDays int, status billing.InvoiceStatus) billing.Invoice {
	t.Helper()

	inv := billing.Invoice{
		ID:            uuid.New(),
		ArenaID:       arenaID,
		AmountCents:   29990,
		DueDate:       f.today.AddDate(0, 0, dueInDays).Format(billing.DateLayout),
		Status:        status,
		PaymentMethod: "pix",
	}
	require.NoError(t, f.billing.CreateInvoice(context.Background(), &inv))
	return inv
}

func (f *fixture) notificationsFor(t *testing.T, userID uuid.UUID) []billing.Notification {
	t.Helper()
	notifications, err := f.notifications.GetNotificationsForUser(context.Background(), userID, 50)
	require.NoError(t, err)
	return notifications
}

func TestRunOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	arenaID := dbtest.Arena(t, f.db, billing.ArenaActive)
	admin1 := dbtest.Member(t, f.db, arenaID, billing.RoleAdmin)
	admin2 := dbtest.Member(t, f.db, arenaID, billing.RoleAdmin)
	staff := dbtest.Member(t, f.db, arenaID, billing.RoleStaff)

	late := f.invoice(t, arenaID, -1, billing.InvoicePending)
	paid := f.invoice(t, arenaID, -5, billing.InvoicePaid)
	dueToday := f.invoice(t, arenaID, 0, billing.InvoicePending)

	summary, err := f.service.RunOverdue(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Suspended)
	assert.Equal(t, 2, summary.Notifications)
	assert.Zero(t, summary.Errors)
	assert.NotEmpty(t, summary.Message)

	fetched, err := f.billing.GetInvoice(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceOverdue, fetched.Status)

	fetched, err = f.billing.GetInvoice(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoicePaid, fetched.Status)

	fetched, err = f.billing.GetInvoice(ctx, dueToday.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoicePending, fetched.Status)

	arena, err := f.billing.GetArena(ctx, arenaID)
	require.NoError(t, err)
	assert.Equal(t, billing.ArenaSuspended, arena.Status)

	for _, admin := range []uuid.UUID{admin1, admin2} {
		notifications := f.notificationsFor(t, admin)
		require.Len(t, notifications, 1)
		assert.Equal(t, billing.NotificationArenaSuspended, notifications[0].Type)
		assert.Contains(t, notifications[0].Message, "R$ 299,90")
		assert.Equal(t, late.ID.String(), notifications[0].Metadata["invoice_id"])
	}
	assert.Empty(t, f.notificationsFor(t, staff))

	// Nothing left to do on the second run
	summary, err = f.service.RunOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
	assert.Len(t, f.notificationsFor(t, admin1), 1)
}

func TestRunOverdue_AlreadySuspended(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	arenaID := dbtest.Arena(t, f.db, billing.ArenaSuspended)
	admin := dbtest.Member(t, f.db, arenaID, billing.RoleAdmin)
	inv := f.invoice(t, arenaID, -10, billing.InvoicePending)

	summary, err := f.service.RunOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Zero(t, summary.Suspended)
	assert.Zero(t, summary.Notifications)

	fetched, err := f.billing.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceOverdue, fetched.Status)
	assert.Empty(t, f.notificationsFor(t, admin))
}

func TestRunOverdue_TwoInvoicesOneArena(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	arenaID := dbtest.Arena(t, f.db, billing.ArenaActive)
	admin := dbtest.Member(t, f.db, arenaID, billing.RoleAdmin)
	f.invoice(t, arenaID, -30, billing.InvoicePending)
	f.invoice(t, arenaID, -1, billing.InvoicePending)

	summary, err := f.service.RunOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Suspended)
	assert.Len(t, f.notificationsFor(t, admin), 1)
}

// rejectNotificationsFor makes every notification insert for userID fail
// until the returned func is called.
func (f *fixture) rejectNotificationsFor(t *testing.T, userID uuid.UUID) func() {
	t.Helper()

	_, err := f.db.Exec(fmt.Sprintf(`CREATE TRIGGER reject_notifications BEFORE INSERT ON notifications
		WHEN NEW.usuario_id = '%s'
		BEGIN SELECT RAISE(ABORT, 'notification rejected'); END`, userID))
	require.NoError(t, err)

	return func() {
		_, err := f.db.Exec("DROP TRIGGER reject_notifications")
		require.NoError(t, err)
	}
}

func TestRunOverdue_FailingInvoiceIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken := dbtest.Arena(t, f.db, billing.ArenaActive)
	brokenAdmin := dbtest.Member(t, f.db, broken, billing.RoleAdmin)
	healthyArena := dbtest.Arena(t, f.db, billing.ArenaActive)
	healthy := dbtest.Member(t, f.db, healthyArena, billing.RoleAdmin)

	failing := f.invoice(t, broken, -5, billing.InvoicePending)
	healthyInvoice := f.invoice(t, healthyArena, -1, billing.InvoicePending)

	f.rejectNotificationsFor(t, brokenAdmin)

	summary, err := f.service.RunOverdue(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Suspended)
	assert.Equal(t, 1, summary.Notifications)
	assert.Equal(t, 1, summary.Errors)

	// The failed invoice is rolled back as a whole
	fetched, err := f.billing.GetInvoice(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoicePending, fetched.Status)
	arena, err := f.billing.GetArena(ctx, broken)
	require.NoError(t, err)
	assert.Equal(t, billing.ArenaActive, arena.Status)

	fetched, err = f.billing.GetInvoice(ctx, healthyInvoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceOverdue, fetched.Status)
	arena, err = f.billing.GetArena(ctx, healthyArena)
	require.NoError(t, err)
	assert.Equal(t, billing.ArenaSuspended, arena.Status)
	assert.Len(t, f.notificationsFor(t, healthy), 1)
}

func TestRunReminders_FailingInvoiceIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken := dbtest.Arena(t, f.db, billing.ArenaActive)
	brokenAdmin := dbtest.Member(t, f.db, broken, billing.RoleAdmin)
	healthyArena := dbtest.Arena(t, f.db, billing.ArenaActive)
	healthyAdmin := dbtest.Member(t, f.db, healthyArena, billing.RoleAdmin)

	f.invoice(t, broken, ReminderLeadDays, billing.InvoicePending)
	f.invoice(t, healthyArena, ReminderLeadDays, billing.InvoicePending)

	allow := f.rejectNotificationsFor(t, brokenAdmin)

	summary, err := f.service.RunReminders(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Notifications)
	assert.Equal(t, 1, summary.Errors)
	assert.Len(t, f.notificationsFor(t, healthyAdmin), 1)
	assert.Empty(t, f.notificationsFor(t, brokenAdmin))

	// The dedup key was rolled back too, so a later run still reminds
	allow()
	summary, err = f.service.RunReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Zero(t, summary.Errors)
	assert.Len(t, f.notificationsFor(t, brokenAdmin), 1)
	assert.Len(t, f.notificationsFor(t, healthyAdmin), 1)
}

func TestRunReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	arenaID := dbtest.Arena(t, f.db, billing.ArenaActive)
	admin1 := dbtest.Member(t, f.db, arenaID, billing.RoleAdmin)
	admin2 := dbtest.Member(t, f.db, arenaID, billing.RoleAdmin)
	staff := dbtest.Member(t, f.db, arenaID, billing.RoleStaff)

	target := f.invoice(t, arenaID, ReminderLeadDays, billing.InvoicePending)
	f.invoice(t, arenaID, ReminderLeadDays-1, billing.InvoicePending)
	f.invoice(t, arenaID, ReminderLeadDays+1, billing.InvoicePending)
	f.invoice(t, arenaID, ReminderLeadDays, billing.InvoicePaid)

	summary, err := f.service.RunReminders(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 2, summary.Notifications)

	for _, admin := range []uuid.UUID{admin1, admin2} {
		notifications := f.notificationsFor(t, admin)
		require.Len(t, notifications, 1)
		n := notifications[0]
		assert.Equal(t, billing.NotificationInvoiceReminder, n.Type)
		assert.Contains(t, n.Message, "R$ 299,90")
		assert.Contains(t, n.Message, "20/10/2026")
		assert.Contains(t, n.Message, "Pix")
		assert.Equal(t, target.ID.String(), n.Metadata["invoice_id"])
		require.NotNil(t, n.ArenaID)
		assert.Equal(t, arenaID, *n.ArenaID)
	}
	assert.Empty(t, f.notificationsFor(t, staff))

	// Running again on the same day does not notify twice
	summary, err = f.service.RunReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Zero(t, summary.Updated)
	assert.Zero(t, summary.Notifications)
	assert.Len(t, f.notificationsFor(t, admin1), 1)

	// The arena is untouched by reminders
	arena, err := f.billing.GetArena(ctx, arenaID)
	require.NoError(t, err)
	assert.Equal(t, billing.ArenaActive, arena.Status)
}

func TestDisplayDateAndHint(t *testing.T) {
	assert.Equal(t, "05/03/2026", displayDate("2026-03-05"))
	assert.Equal(t, "not-a-date", displayDate("not-a-date"))
	assert.Contains(t, paymentHint("boleto"), "boleto")
	assert.NotEmpty(t, paymentHint("unknown"))
}

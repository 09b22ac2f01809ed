package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is how calendar dates such as invoice due dates are stored.
const DateLayout = "2006-01-02"

type ArenaStatus string

const (
	ArenaActive    ArenaStatus = "active"
	ArenaSuspended ArenaStatus = "suspended"
)

type Arena struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Status    ArenaStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

type MemberRole string

const (
	RoleAdmin MemberRole = "admin"
	RoleStaff MemberRole = "staff"
)

type ArenaMember struct {
	ArenaID   uuid.UUID  `db:"arena_id"`
	UserID    uuid.UUID  `db:"user_id"`
	Role      MemberRole `db:"role"`
	CreatedAt time.Time  `db:"created_at"`
}

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type Invoice struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	ArenaID       uuid.UUID     `db:"arena_id" json:"arena_id"`
	AmountCents   int64         `db:"amount_cents" json:"amount_cents"`
	DueDate       string        `db:"due_date" json:"due_date"`
	Status        InvoiceStatus `db:"status" json:"status"`
	PaymentMethod string        `db:"payment_method" json:"payment_method"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// Notification is the generic fan-out message the UI polls or subscribes to.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"usuario_id" json:"usuario_id"`
	ArenaID   *uuid.UUID `db:"arena_id" json:"arena_id,omitempty"`
	Type      string     `db:"tipo" json:"tipo"`
	Title     string     `db:"titulo" json:"titulo"`
	Message   string     `db:"mensagem" json:"mensagem"`
	Link      *string    `db:"link" json:"link,omitempty"`
	Metadata  Metadata   `db:"metadata" json:"metadata"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Metadata is stored as a JSON object in a TEXT column.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// Notification types, kept in Portuguese to match what the UI filters on.
const (
	NotificationInvoiceReminder = "lembrete_fatura"
	NotificationArenaSuspended  = "arena_suspensa"
)

// FormatCents renders an amount as Brazilian reais, e.g. 12345 -> "R$ 123,45".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	digits := strconv.FormatInt(cents/100, 10)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}

	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), cents%100)
}

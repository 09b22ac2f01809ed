package sweep

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/AdamBeresnev/arena-manager/internal/utils"
	"github.com/google/uuid"
)

const invoicesLink = "/billing/invoices"

// displayDate renders a stored due date as dd/mm/yyyy, falling back to the raw value.
func displayDate(date string) string {
	t, err := time.Parse(billing.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

func paymentHint(method string) string {
	switch method {
	case "pix":
		return "Pague via Pix com a chave disponível no painel."
	case "boleto":
		return "O boleto está disponível no painel de faturas."
	case "card", "cartao":
		return "A cobrança será feita no cartão cadastrado."
	default:
		return "Acesse o painel de faturas para efetuar o pagamento."
	}
}

func invoiceMetadata(inv billing.Invoice) billing.Metadata {
	return billing.Metadata{
		"invoice_id":     inv.ID.String(),
		"amount_cents":   inv.AmountCents,
		"due_date":       inv.DueDate,
		"payment_method": inv.PaymentMethod,
	}
}

func suspensionNotice(adminID uuid.UUID, arena *billing.Arena, inv billing.Invoice) billing.Notification {
	arenaID := arena.ID
	return billing.Notification{
		ID:      uuid.New(),
		UserID:  adminID,
		ArenaID: &arenaID,
		Type:    billing.NotificationArenaSuspended,
		Title:   "Arena suspensa por fatura vencida",
		Message: fmt.Sprintf("A arena %s foi suspensa porque a fatura de %s com vencimento em %s não foi paga.",
			arena.Name, billing.FormatCents(inv.AmountCents), displayDate(inv.DueDate)),
		Link:     utils.Ptr(invoicesLink),
		Metadata: invoiceMetadata(inv),
	}
}

func reminderNotice(adminID uuid.UUID, inv billing.Invoice) billing.Notification {
	arenaID := inv.ArenaID
	return billing.Notification{
		ID:      uuid.New(),
		UserID:  adminID,
		ArenaID: &arenaID,
		Type:    billing.NotificationInvoiceReminder,
		Title:   fmt.Sprintf("Fatura vence em %d dias", ReminderLeadDays),
		Message: fmt.Sprintf("Sua fatura de %s vence em %s. %s",
			billing.FormatCents(inv.AmountCents), displayDate(inv.DueDate), paymentHint(inv.PaymentMethod)),
		Link:     utils.Ptr(invoicesLink),
		Metadata: invoiceMetadata(inv),
	}
}

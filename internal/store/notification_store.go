package store

import (
	"context"

	"github.com/AdamBeresnev/arena-manager/internal/billing"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type NotificationStore struct {
	q querier
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{q: db}
}

func (s *NotificationStore) WithTx(tx *sqlx.Tx) *NotificationStore {
	return &NotificationStore{q: tx}
}

func (s *NotificationStore) CreateNotifications(ctx context.Context, notifications []billing.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	_, err := s.q.NamedExecContext(ctx, `INSERT INTO notifications (id, usuario_id, arena_id, tipo, titulo, mensagem, link, metadata)
		VALUES (:id, :usuario_id, :arena_id, :tipo, :titulo, :mensagem, :link, :metadata)`, notifications)
	return err
}

func (s *NotificationStore) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]billing.Notification, error) {
	var notifications []billing.Notification
	err := s.q.SelectContext(ctx, &notifications, "SELECT * FROM notifications WHERE usuario_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?", userID, limit)
	return notifications, err
}

// RecordActivity writes an audit entry to the activity log.
func (s *NotificationStore) RecordActivity(ctx context.Context, action string, details billing.Metadata) error {
	_, err := s.q.ExecContext(ctx, "INSERT INTO activity_log (id, action, details) VALUES (?, ?, ?)", uuid.New(), action, details)
	return err
}

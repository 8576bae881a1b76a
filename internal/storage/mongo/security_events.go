package mongo

import (
	"context"
	"fmt"

	"github.com/mindtutor/auth-service/internal/models"
)

// AppendSecurityEvent добавляет событие безопасности в журнал.
// Журнал append-only: обновлений и удалений у коллекции нет.
func (m *Mongo) AppendSecurityEvent(ctx context.Context, event *models.SecurityEvent) error {
	const op = "storage/mongo/AppendSecurityEvent"

	event.CreatedAt = toMS(event.CreatedAt)

	if _, err := m.securityEvents.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

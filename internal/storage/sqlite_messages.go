package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/security"
)

type sqliteMessageRepo struct {
	db     *sql.DB
	cipher *security.FieldCipher
}

func (r *sqliteMessageRepo) Create(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	content, err := r.cipher.EncryptString(m.Content)
	if err != nil {
		return fmt.Errorf("encrypt message: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, content, utc(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListConversation returns the latest limit messages between two users, oldest first.
func (r *sqliteMessageRepo) ListConversation(ctx context.Context, userA, userB string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, sender_id, receiver_id, content, created_at, read_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userA, userB, userB, userA, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		m := &models.Message{}
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt, &readAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if m.Content, err = r.cipher.DecryptString(m.Content); err != nil {
			return nil, fmt.Errorf("decrypt message %s: %w", m.ID, err)
		}
		m.ReadAt = timeFromNull(readAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *sqliteMessageRepo) MarkRead(ctx context.Context, receiverID, senderID string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at = ? WHERE receiver_id = ? AND sender_id = ? AND read_at IS NULL`,
		utc(at), receiverID, senderID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return result.RowsAffected()
}

func (r *sqliteMessageRepo) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND read_at IS NULL`, receiverID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return n, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"producer-chat/internal/domain/chat"
	chat_errors "producer-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *chat.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return chat_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetThreadPage(ctx context.Context, userID, otherID uuid.UUID, before *time.Time, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	q := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID)

	if before != nil {
		q = q.Where("created_at < ?", *before)
	}

	err := q.Order("created_at DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) MarkThreadRead(ctx context.Context, recipientID, senderID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND read_at IS NULL", recipientID, senderID).
		Update("read_at", at)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostgresMessageRepository) DeleteThread(ctx context.Context, userID, otherID uuid.UUID) (int64, error) {
	// Single conditional delete over the unordered pair: there is never a
	// window where only one direction's messages are gone.
	res := r.db.WithContext(ctx).
		Delete(&chat.Message{},
			"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostgresMessageRepository) GetLatestPerCounterparty(ctx context.Context, userID uuid.UUID, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.* FROM messages m
		JOIN (
			SELECT CASE WHEN sender_id = @uid THEN recipient_id ELSE sender_id END AS party_id,
			       MAX(created_at) AS last_at
			FROM messages
			WHERE sender_id = @uid OR recipient_id = @uid
			GROUP BY party_id
		) latest
		  ON (CASE WHEN m.sender_id = @uid THEN m.recipient_id ELSE m.sender_id END) = latest.party_id
		 AND m.created_at = latest.last_at
		WHERE m.sender_id = @uid OR m.recipient_id = @uid
		ORDER BY m.created_at DESC
		LIMIT @lim`,
		sql.Named("uid", userID), sql.Named("lim", limit),
	).Scan(&messages).Error
	if err != nil {
		return nil, err
	}

	// An exact created_at tie can yield two rows for one party; keep the
	// first scanned so ordering stays stable within this call.
	seen := make(map[uuid.UUID]bool, len(messages))
	deduped := messages[:0]
	for _, m := range messages {
		party := m.Counterparty(userID)
		if seen[party] {
			continue
		}
		seen[party] = true
		deduped = append(deduped, m)
	}
	return deduped, nil
}

type unreadRow struct {
	SenderID uuid.UUID
	Total    int64
}

func (r *PostgresMessageRepository) CountUnreadBySender(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []unreadRow
	err := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Select("sender_id, COUNT(*) AS total").
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.SenderID] = row.Total
	}
	return counts, nil
}

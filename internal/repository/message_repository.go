package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	*base.Repository
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{Repository: base.NewRepository(pool)}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (conversation_id, tuition_id, sender_id, receiver_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, read, created_at
	`

	err := r.QueryRow(
		ctx, query,
		msg.ConversationID,
		msg.TuitionID,
		msg.SenderID,
		msg.ReceiverID,
		msg.Content,
	).Scan(&msg.ID, &msg.Read, &msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	var msg model.Message
	err := r.QueryRow(ctx, `
		SELECT id, conversation_id, tuition_id, sender_id, receiver_id, content, read, created_at
		FROM messages
		WHERE id = $1
	`, id).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.TuitionID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msg.Read,
		&msg.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message by id: %w", err)
	}
	return &msg, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `UPDATE messages SET read = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

// ListByConversation страница переписки от новых к старым
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string, page model.Page) ([]*model.Message, int, error) {
	var total int
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	query := `
		SELECT id, conversation_id, tuition_id, sender_id, receiver_id, content, read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.Query(ctx, query, conversationID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		var msg model.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.TuitionID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.Read,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, total, nil
}

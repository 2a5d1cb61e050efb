package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/tuition_market/internal/model"
)

type messageStore struct{ s *Store }

func (r *messageStore) Create(ctx context.Context, msg *model.Message) error {
	defer r.s.lock(ctx)()
	msg.ID = r.s.nextID()
	msg.Read = false
	msg.CreatedAt = r.s.now()
	stored := *msg
	stored.Sender = nil
	r.s.data.messages[msg.ID] = &stored
	return nil
}

func (r *messageStore) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	defer r.s.lock(ctx)()
	if m, ok := r.s.data.messages[id]; ok {
		c := *m
		return &c, nil
	}
	return nil, nil
}

func (r *messageStore) MarkRead(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	if m, ok := r.s.data.messages[id]; ok {
		m.Read = true
	}
	return nil
}

func (r *messageStore) ListByConversation(ctx context.Context, conversationID string, page model.Page) ([]*model.Message, int, error) {
	defer r.s.lock(ctx)()
	messages := []*model.Message{}
	for _, m := range r.s.data.messages {
		if m.ConversationID == conversationID {
			c := *m
			messages = append(messages, &c)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID > messages[j].ID
		}
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return paginate(messages, page), len(messages), nil
}

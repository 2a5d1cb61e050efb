package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"go.uber.org/zap"
)

const (
	DefaultMessageLimit = 20
	maxMessageLength    = 1000
)

type MessageService struct {
	userRepo        UserStore
	tuitionRepo     TuitionStore
	applicationRepo ApplicationStore
	messageRepo     MessageStore
	notifier        *NotificationService
	logger          *zap.Logger
}

func NewMessageService(
	userRepo UserStore,
	tuitionRepo TuitionStore,
	applicationRepo ApplicationStore,
	messageRepo MessageStore,
	notifier *NotificationService,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		userRepo:        userRepo,
		tuitionRepo:     tuitionRepo,
		applicationRepo: applicationRepo,
		messageRepo:     messageRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

type SendMessageInput struct {
	TuitionID  int64
	ReceiverID int64
	Content    string
}

// Send отправляет сообщение. Переписка возможна только между владельцем
// объявления и репетитором с одобренной заявкой на него.
func (s *MessageService) Send(ctx context.Context, senderID int64, in SendMessageInput) (*model.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, validation("Message content is required")
	}
	if len([]rune(content)) > maxMessageLength {
		return nil, validation("Message must be at most %d characters", maxMessageLength)
	}
	if senderID == in.ReceiverID {
		return nil, validation("Cannot send a message to yourself")
	}

	tuition, err := s.tuitionRepo.GetByID(ctx, in.TuitionID)
	if err != nil {
		return nil, fmt.Errorf("get tuition: %w", err)
	}
	if tuition == nil {
		return nil, notFound("Tuition not found")
	}

	var tutorID int64
	switch tuition.StudentID {
	case senderID:
		tutorID = in.ReceiverID
	case in.ReceiverID:
		tutorID = senderID
	default:
		return nil, forbidden("You can only message about your own tuition")
	}

	app, err := s.applicationRepo.GetByTuitionAndTutor(ctx, tuition.ID, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil || !app.IsApproved() {
		return nil, forbidden("Messaging requires an approved application for this tuition")
	}

	msg := &model.Message{
		ConversationID: model.ConversationID(tuition.StudentID, tutorID, tuition.ID),
		TuitionID:      tuition.ID,
		SenderID:       senderID,
		ReceiverID:     in.ReceiverID,
		Content:        content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.logger.Debug("Message sent",
		zap.Int64("message_id", msg.ID),
		zap.String("conversation_id", msg.ConversationID),
	)

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		s.logger.Warn("Failed to load message sender", zap.Int64("user_id", senderID), zap.Error(err))
	}
	name := "someone"
	if sender != nil {
		name = sender.Name
		msg.Sender = sender
	}
	s.notifier.Notify(ctx, in.ReceiverID, model.NotificationMessageReceived,
		fmt.Sprintf("New message from %s", name),
		"/dashboard/messages/"+msg.ConversationID,
	)

	return msg, nil
}

// Conversation последняя страница переписки в хронологическом порядке
func (s *MessageService) Conversation(ctx context.Context, conversationID string, userID int64, page model.Page) ([]*model.Message, model.Pagination, error) {
	parts, err := model.ParseConversationID(conversationID)
	if err != nil {
		return nil, model.Pagination{}, validation("Invalid conversation id")
	}
	if !slices.Contains(parts[:], userID) {
		return nil, model.Pagination{}, forbidden("Not authorized to view this conversation")
	}

	messages, total, err := s.messageRepo.ListByConversation(ctx, conversationID, page)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("list messages: %w", err)
	}

	// В отсортированной тройке роли не различимы, участников сверяем по сообщениям
	for _, m := range messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			return nil, model.Pagination{}, forbidden("Not authorized to view this conversation")
		}
	}

	if len(messages) == 0 {
		ok, err := s.isParticipant(ctx, parts, userID)
		if err != nil {
			return nil, model.Pagination{}, err
		}
		if !ok {
			return nil, model.Pagination{}, forbidden("Not authorized to view this conversation")
		}
	}

	slices.Reverse(messages)

	if len(messages) > 0 {
		ids := make([]int64, 0, 2)
		for _, m := range messages {
			if !slices.Contains(ids, m.SenderID) {
				ids = append(ids, m.SenderID)
			}
		}
		senders, err := s.userRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, model.Pagination{}, fmt.Errorf("get senders: %w", err)
		}
		byID := make(map[int64]*model.User, len(senders))
		for _, u := range senders {
			byID[u.ID] = u
		}
		for _, m := range messages {
			m.Sender = byID[m.SenderID]
		}
	}

	return messages, page.Result(total), nil
}

// isParticipant ищет в тройке объявление, для которого userID владелец
// или репетитор с одобренной заявкой
func (s *MessageService) isParticipant(ctx context.Context, parts [3]int64, userID int64) (bool, error) {
	for i, candidate := range parts {
		if i > 0 && parts[i-1] == candidate {
			continue
		}
		tuition, err := s.tuitionRepo.GetByID(ctx, candidate)
		if err != nil {
			return false, fmt.Errorf("get tuition: %w", err)
		}
		if tuition == nil {
			continue
		}

		rest := slices.Delete(slices.Clone(parts[:]), i, i+1)
		j := slices.Index(rest, tuition.StudentID)
		if j < 0 {
			continue
		}
		tutorID := rest[1-j]
		if userID != tuition.StudentID && userID != tutorID {
			continue
		}

		app, err := s.applicationRepo.GetByTuitionAndTutor(ctx, tuition.ID, tutorID)
		if err != nil {
			return false, fmt.Errorf("get application: %w", err)
		}
		if app != nil && app.IsApproved() {
			return true, nil
		}
	}
	return false, nil
}

// MarkRead отмечает сообщение прочитанным, только получатель
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID int64) (*model.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return nil, notFound("Message not found")
	}
	if msg.ReceiverID != userID {
		return nil, forbidden("Not authorized to update this message")
	}

	if err := s.messageRepo.MarkRead(ctx, messageID); err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}
	msg.Read = true
	return msg, nil
}

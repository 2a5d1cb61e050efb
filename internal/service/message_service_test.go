package service_test

import (
	"strings"
	"testing"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage_BothDirections(t *testing.T) {
	f := newFixture(t)
	student, tutor, tuition := workedTogether(t, f)

	first, err := f.svc.Messages.Send(f.ctx, student.ID, service.SendMessageInput{
		TuitionID:  tuition.ID,
		ReceiverID: tutor.ID,
		Content:    "  Can we start on Sunday?  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Can we start on Sunday?", first.Content)
	assert.Equal(t, model.ConversationID(student.ID, tutor.ID, tuition.ID), first.ConversationID)

	reply, err := f.svc.Messages.Send(f.ctx, tutor.ID, service.SendMessageInput{
		TuitionID:  tuition.ID,
		ReceiverID: student.ID,
		Content:    "Sure",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, reply.ConversationID)

	tutorNotes := f.notifications(t, tutor.ID)
	require.NotEmpty(t, tutorNotes)
	assert.Equal(t, model.NotificationMessageReceived, tutorNotes[0].Type)
	assert.Equal(t, "New message from "+student.Name, tutorNotes[0].Message)
	assert.Equal(t, "/dashboard/messages/"+first.ConversationID, tutorNotes[0].Link)

	messages, pagination, err := f.svc.Messages.Conversation(f.ctx, first.ConversationID, tutor.ID, model.NewPage(1, 20, 20))
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, 2, pagination.Total)
	assert.Equal(t, first.ID, messages[0].ID, "chronological order")
	assert.Equal(t, reply.ID, messages[1].ID)
	require.NotNil(t, messages[0].Sender)
	assert.Equal(t, student.ID, messages[0].Sender.ID)
}

func TestSendMessage_Rejections(t *testing.T) {
	f := newFixture(t)
	student, tutor, tuition := workedTogether(t, f)
	outsider := f.user(t, model.RoleTutor)
	pendingTutor := f.user(t, model.RoleTutor)

	other := f.user(t, model.RoleStudent)
	openTuition := f.tuition(t, other.ID, model.TuitionStatusApproved)
	f.apply(t, pendingTutor.ID, openTuition.ID)

	tests := []struct {
		name     string
		senderID int64
		input    service.SendMessageInput
		wantErr  error
	}{
		{
			name:     "empty content",
			senderID: student.ID,
			input:    service.SendMessageInput{TuitionID: tuition.ID, ReceiverID: tutor.ID, Content: "   "},
			wantErr:  service.ErrValidation,
		},
		{
			name:     "too long",
			senderID: student.ID,
			input:    service.SendMessageInput{TuitionID: tuition.ID, ReceiverID: tutor.ID, Content: strings.Repeat("a", 1001)},
			wantErr:  service.ErrValidation,
		},
		{
			name:     "to self",
			senderID: student.ID,
			input:    service.SendMessageInput{TuitionID: tuition.ID, ReceiverID: student.ID, Content: "hi"},
			wantErr:  service.ErrValidation,
		},
		{
			name:     "unknown tuition",
			senderID: student.ID,
			input:    service.SendMessageInput{TuitionID: 999999, ReceiverID: tutor.ID, Content: "hi"},
			wantErr:  service.ErrNotFound,
		},
		{
			name:     "outsider writes to tutor",
			senderID: outsider.ID,
			input:    service.SendMessageInput{TuitionID: tuition.ID, ReceiverID: tutor.ID, Content: "hi"},
			wantErr:  service.ErrForbidden,
		},
		{
			name:     "student writes to tutor without application",
			senderID: student.ID,
			input:    service.SendMessageInput{TuitionID: tuition.ID, ReceiverID: outsider.ID, Content: "hi"},
			wantErr:  service.ErrForbidden,
		},
		{
			name:     "application still pending",
			senderID: pendingTutor.ID,
			input:    service.SendMessageInput{TuitionID: openTuition.ID, ReceiverID: other.ID, Content: "hi"},
			wantErr:  service.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Messages.Send(f.ctx, tt.senderID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConversation_Access(t *testing.T) {
	f := newFixture(t)
	student, tutor, tuition := workedTogether(t, f)
	outsider := f.user(t, model.RoleStudent)

	msg, err := f.svc.Messages.Send(f.ctx, student.ID, service.SendMessageInput{
		TuitionID:  tuition.ID,
		ReceiverID: tutor.ID,
		Content:    "hello",
	})
	require.NoError(t, err)

	_, _, err = f.svc.Messages.Conversation(f.ctx, msg.ConversationID, outsider.ID, model.NewPage(1, 20, 20))
	assert.ErrorIs(t, err, service.ErrForbidden)

	// Id объявления входит в тройку, но не является участником
	_, _, err = f.svc.Messages.Conversation(f.ctx, msg.ConversationID, tuition.ID, model.NewPage(1, 20, 20))
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, _, err = f.svc.Messages.Conversation(f.ctx, "not-a-conversation", student.ID, model.NewPage(1, 20, 20))
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestConversation_EmptyRequiresParticipant(t *testing.T) {
	f := newFixture(t)
	student, tutor, tuition := workedTogether(t, f)
	outsider := f.user(t, model.RoleTutor)
	page := model.NewPage(1, 20, 20)
	conversationID := model.ConversationID(student.ID, tutor.ID, tuition.ID)

	for _, userID := range []int64{student.ID, tutor.ID} {
		messages, pagination, err := f.svc.Messages.Conversation(f.ctx, conversationID, userID, page)
		require.NoError(t, err)
		assert.Empty(t, messages)
		assert.Zero(t, pagination.Total)
	}

	// Совпадение id с объявлением не делает участником
	_, _, err := f.svc.Messages.Conversation(f.ctx, conversationID, tuition.ID, page)
	assert.ErrorIs(t, err, service.ErrForbidden)

	// Репетитор без одобренной заявки
	foreign := model.ConversationID(student.ID, outsider.ID, tuition.ID)
	_, _, err = f.svc.Messages.Conversation(f.ctx, foreign, outsider.ID, page)
	assert.ErrorIs(t, err, service.ErrForbidden)

	// В тройке нет объявления
	made := model.ConversationID(student.ID, tutor.ID, outsider.ID)
	_, _, err = f.svc.Messages.Conversation(f.ctx, made, outsider.ID, page)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestMarkMessageRead(t *testing.T) {
	f := newFixture(t)
	student, tutor, tuition := workedTogether(t, f)

	msg, err := f.svc.Messages.Send(f.ctx, student.ID, service.SendMessageInput{
		TuitionID:  tuition.ID,
		ReceiverID: tutor.ID,
		Content:    "hello",
	})
	require.NoError(t, err)

	_, err = f.svc.Messages.MarkRead(f.ctx, msg.ID, student.ID)
	assert.ErrorIs(t, err, service.ErrForbidden, "only the receiver marks read")

	read, err := f.svc.Messages.MarkRead(f.ctx, msg.ID, tutor.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	_, err = f.svc.Messages.MarkRead(f.ctx, 999999, tutor.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

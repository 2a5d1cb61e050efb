package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Message struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversationId"`
	TuitionID      int64     `json:"tuitionId"`
	SenderID       int64     `json:"senderId"`
	ReceiverID     int64     `json:"receiverId"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`

	Sender *User `json:"sender,omitempty"`
}

// ConversationID детерминированный id переписки: отсортированная тройка через дефис
func ConversationID(studentID, tutorID, tuitionID int64) string {
	ids := []int64{studentID, tutorID, tuitionID}
	slices.Sort(ids)
	return fmt.Sprintf("%d-%d-%d", ids[0], ids[1], ids[2])
}

// ParseConversationID разбирает id переписки обратно в тройку чисел
func ParseConversationID(id string) ([3]int64, error) {
	var out [3]int64
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return out, fmt.Errorf("conversation id %q: want 3 parts", id)
	}
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v <= 0 {
			return out, fmt.Errorf("conversation id %q: bad part %q", id, p)
		}
		out[i] = v
	}
	return out, nil
}

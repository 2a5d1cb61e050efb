package model

import "time"

type NotificationType string

const (
	NotificationApplicationReceived NotificationType = "application_received"
	NotificationApplicationApproved NotificationType = "application_approved"
	NotificationApplicationRejected NotificationType = "application_rejected"
	NotificationPaymentSuccess      NotificationType = "payment_success"
	NotificationPaymentApproved     NotificationType = "payment_approved"
	NotificationPaymentReceived     NotificationType = "payment_received"
	NotificationTuitionApproved     NotificationType = "tuition_approved"
	NotificationTuitionRejected     NotificationType = "tuition_rejected"
	NotificationMessageReceived     NotificationType = "message_received"
	NotificationReviewReceived      NotificationType = "review_received"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"userId"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

type NotificationFilter struct {
	UserID int64
	Read   *bool
	Page   Page
}

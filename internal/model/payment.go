package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending         PaymentStatus = "Pending"
	PaymentStatusPendingApproval PaymentStatus = "PendingApproval" // ручной платёж ждёт админа
	PaymentStatusSucceeded       PaymentStatus = "Succeeded"
	PaymentStatusFailed          PaymentStatus = "Failed"
)

func (s PaymentStatus) String() string { return string(s) }

// Transition Succeeded финальный; Failed -> Succeeded при повторной оплате того же intent
func (s PaymentStatus) Transition(to PaymentStatus) (PaymentStatus, error) {
	switch s {
	case PaymentStatusPending, PaymentStatusPendingApproval:
		if to == PaymentStatusSucceeded || to == PaymentStatusFailed {
			return to, nil
		}
	case PaymentStatusFailed:
		if to == PaymentStatusSucceeded {
			return to, nil
		}
	}
	return s, transitionError("payment", s, to)
}

type PaymentMethod string

const (
	PaymentMethodCard          PaymentMethod = "card"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodMobileBanking PaymentMethod = "mobile_banking"
	PaymentMethodManual        PaymentMethod = "manual"
)

type Payment struct {
	ID            int64         `json:"id"`
	StudentID     int64         `json:"studentId"`
	TutorID       int64         `json:"tutorId"`
	TuitionID     int64         `json:"tuitionId"`
	ApplicationID int64         `json:"applicationId"`
	Amount        int64         `json:"amount"`
	ExternalRef   string        `json:"externalPaymentRef"` // id платежа у процессора или MANUAL_*
	Status        PaymentStatus `json:"status"`
	Method        PaymentMethod `json:"paymentMethod"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type PaymentFilter struct {
	StudentID *int64
	TutorID   *int64
	Statuses  []PaymentStatus
	From      *time.Time
	To        *time.Time
	Page      Page
}

// PaymentIntent ответ процессора на создание intent
type PaymentIntent struct {
	IntentID     string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
}

type PaymentEventType string

const (
	PaymentEventSucceeded PaymentEventType = "payment_succeeded"
	PaymentEventFailed    PaymentEventType = "payment_failed"
	PaymentEventIgnored   PaymentEventType = "ignored"
)

// PaymentEvent проверенное событие процессора, суммы уже в основных единицах
type PaymentEvent struct {
	Type          PaymentEventType
	RawType       string
	IntentID      string
	Amount        int64
	ApplicationID int64
	TuitionID     int64
	TutorID       int64
	StudentID     int64
}

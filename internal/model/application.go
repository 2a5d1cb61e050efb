package model

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "Pending"
	ApplicationStatusApproved ApplicationStatus = "Approved"
	ApplicationStatusRejected ApplicationStatus = "Rejected"
)

func (s ApplicationStatus) String() string { return string(s) }

// Transition Pending -> Approved|Rejected, повторное Approved допустимо (повтор вебхука)
func (s ApplicationStatus) Transition(to ApplicationStatus) (ApplicationStatus, error) {
	switch {
	case s == ApplicationStatusPending && (to == ApplicationStatusApproved || to == ApplicationStatusRejected):
		return to, nil
	case s == ApplicationStatusApproved && to == ApplicationStatusApproved:
		return to, nil
	}
	return s, transitionError("application", s, to)
}

type Application struct {
	ID             int64             `json:"id"`
	TuitionID      int64             `json:"tuitionId"`
	TutorID        int64             `json:"tutorId"`
	Qualifications string            `json:"qualifications"`
	Experience     string            `json:"experience"`
	ExpectedSalary int64             `json:"expectedSalary"`
	Status         ApplicationStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`

	// Не из БД
	Tuition *Tuition `json:"tuition,omitempty"`
	Tutor   *User    `json:"tutor,omitempty"`
}

func (a *Application) IsPending() bool { return a.Status == ApplicationStatusPending }

func (a *Application) IsApproved() bool { return a.Status == ApplicationStatusApproved }

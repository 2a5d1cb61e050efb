package model

import "time"

type TuitionStatus string

const (
	TuitionStatusPending   TuitionStatus = "Pending"   // Ожидает модерации админом
	TuitionStatusApproved  TuitionStatus = "Approved"  // Одобрено, принимает заявки
	TuitionStatusRejected  TuitionStatus = "Rejected"  // Отклонено админом
	TuitionStatusOpen      TuitionStatus = "Open"      // Открыто для заявок
	TuitionStatusOngoing   TuitionStatus = "Ongoing"   // Репетитор выбран, занятия идут
	TuitionStatusCompleted TuitionStatus = "Completed" // Завершено
	TuitionStatusClosed    TuitionStatus = "Closed"    // Закрыто
)

func (s TuitionStatus) String() string { return string(s) }

func (s TuitionStatus) Valid() bool {
	_, ok := tuitionTransitions[s]
	return ok
}

// AcceptsApplications заявки принимаются только после модерации
func (s TuitionStatus) AcceptsApplications() bool {
	return s == TuitionStatusApproved || s == TuitionStatusOpen
}

var tuitionTransitions = map[TuitionStatus][]TuitionStatus{
	TuitionStatusPending:   {TuitionStatusApproved, TuitionStatusRejected},
	TuitionStatusApproved:  {TuitionStatusOpen, TuitionStatusOngoing, TuitionStatusRejected, TuitionStatusClosed},
	TuitionStatusOpen:      {TuitionStatusOngoing, TuitionStatusClosed},
	TuitionStatusRejected:  {TuitionStatusApproved},
	TuitionStatusOngoing:   {TuitionStatusOngoing, TuitionStatusCompleted, TuitionStatusClosed},
	TuitionStatusCompleted: {TuitionStatusClosed},
	TuitionStatusClosed:    {},
}

// Transition единственная точка смены статуса объявления
func (s TuitionStatus) Transition(to TuitionStatus) (TuitionStatus, error) {
	for _, allowed := range tuitionTransitions[s] {
		if allowed == to {
			return to, nil
		}
	}
	return s, transitionError("tuition", s, to)
}

// MinAmount минимальный бюджет объявления и ожидаемая оплата репетитора
const MinAmount = 500

type TuitionMode string

const (
	TuitionModeOnline  TuitionMode = "online"
	TuitionModeOffline TuitionMode = "offline"
	TuitionModeHybrid  TuitionMode = "hybrid"
)

type Tuition struct {
	ID               int64         `json:"id"`
	StudentID        int64         `json:"studentId"`
	Subject          string        `json:"subject"`
	ClassLevel       string        `json:"classLevel"`
	Location         string        `json:"location"`
	Budget           int64         `json:"budget"`
	Schedule         string        `json:"schedule"`
	Mode             TuitionMode   `json:"mode"`
	Description      string        `json:"description"`
	Status           TuitionStatus `json:"status"`
	ApplicationCount int           `json:"applicationCount"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`

	// Не из БД
	Student *User `json:"student,omitempty"`
}

type TuitionSort string

const (
	TuitionSortDateDesc   TuitionSort = "dateDesc"
	TuitionSortDateAsc    TuitionSort = "dateAsc"
	TuitionSortBudgetAsc  TuitionSort = "budgetAsc"
	TuitionSortBudgetDesc TuitionSort = "budgetDesc"
)

// TuitionFilter общий фильтр для публичного, студенческого и админского списков
type TuitionFilter struct {
	Statuses   []TuitionStatus
	StudentID  *int64
	ClassLevel string
	Subject    string
	Location   string
	Query      string // поиск по предмету, локации и описанию
	Search     string // админский поиск по предмету и локации
	Sort       TuitionSort
	Page       Page
}

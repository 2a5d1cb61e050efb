package model

import (
	"math"
	"time"
)

type Review struct {
	ID        int64     `json:"id"`
	TutorID   int64     `json:"tutorId"`
	StudentID int64     `json:"studentId"`
	TuitionID int64     `json:"tuitionId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`

	Student *User `json:"student,omitempty"`
}

// RatingSummary сумма и количество оценок репетитора
type RatingSummary struct {
	Sum   int64
	Count int
}

// Average среднее с округлением до одного знака
func (s RatingSummary) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	mean := float64(s.Sum) / float64(s.Count)
	return math.Floor(mean*10+0.5) / 10
}

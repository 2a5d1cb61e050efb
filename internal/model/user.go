package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// Valid проверяет что роль из допустимого набора
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID              int64     `json:"id"`
	ExternalID      string    `json:"-"` // uid у провайдера идентификации
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	Phone           string    `json:"phone"`
	PhotoURL        string    `json:"photoUrl"`
	City            string    `json:"city"`
	Qualifications  string    `json:"qualifications,omitempty"`
	ExperienceYears *int      `json:"experienceYears,omitempty"`
	Subjects        []string  `json:"subjects"`
	ClassLevels     []string  `json:"classLevels"`
	IsVerified      bool      `json:"isVerified"`
	AverageRating   float64   `json:"averageRating"`
	ReviewCount     int       `json:"reviewCount"`
	IsAvailable     bool      `json:"isAvailable"`
	TelegramChatID  *int64    `json:"telegramChatId,omitempty"` // чат для пересылки уведомлений
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) IsTutor() bool { return u.Role == RoleTutor }

func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// UserFilter параметры выборки для админского списка
type UserFilter struct {
	Role   Role
	Search string
	Page   Page
}

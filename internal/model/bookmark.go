package model

import (
	"fmt"
	"time"
)

type BookmarkKind string

const (
	BookmarkKindTutor   BookmarkKind = "tutor"
	BookmarkKindTuition BookmarkKind = "tuition"
)

// BookmarkTarget tagged union: либо репетитор, либо объявление
type BookmarkTarget struct {
	Kind BookmarkKind `json:"type"`
	ID   int64        `json:"id"`
}

func TutorTarget(id int64) BookmarkTarget { return BookmarkTarget{Kind: BookmarkKindTutor, ID: id} }

func TuitionTarget(id int64) BookmarkTarget {
	return BookmarkTarget{Kind: BookmarkKindTuition, ID: id}
}

// ParseBookmarkTarget строит цель из пары type/targetId запроса
func ParseBookmarkTarget(kind string, id int64) (BookmarkTarget, error) {
	switch BookmarkKind(kind) {
	case BookmarkKindTutor:
		return TutorTarget(id), nil
	case BookmarkKindTuition:
		return TuitionTarget(id), nil
	}
	return BookmarkTarget{}, fmt.Errorf("unknown bookmark type %q", kind)
}

type Bookmark struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userId"`
	Target    BookmarkTarget `json:"target"`
	CreatedAt time.Time      `json:"createdAt"`

	// Заполняется при выдаче списка, ровно одно из двух
	Tutor   *User    `json:"tutor,omitempty"`
	Tuition *Tuition `json:"tuition,omitempty"`
}

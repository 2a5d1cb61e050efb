package service_test

import (
	"testing"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workedTogether студент с одобренной заявкой репетитора на своё объявление
func workedTogether(t *testing.T, f *fixture) (student, tutor *model.User, tuition *model.Tuition) {
	t.Helper()
	student = f.user(t, model.RoleStudent)
	tutor = f.user(t, model.RoleTutor)
	tuition = f.tuition(t, student.ID, model.TuitionStatusApproved)
	app := f.apply(t, tutor.ID, tuition.ID)
	_, err := f.svc.Applications.UpdateStatus(f.ctx, app.ID, student.ID, model.ApplicationStatusApproved)
	require.NoError(t, err)
	return student, tutor, tuition
}

func TestCreateReview_UpdatesTutorRating(t *testing.T) {
	f := newFixture(t)
	student, tutor, tuition := workedTogether(t, f)

	review, err := f.svc.Reviews.Create(f.ctx, student.ID, service.ReviewInput{
		TutorID:   tutor.ID,
		TuitionID: tuition.ID,
		Rating:    4,
		Comment:   "  Very patient  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Very patient", review.Comment)

	// Второй студент с другим объявлением у того же репетитора
	other := f.user(t, model.RoleStudent)
	otherTuition := f.tuition(t, other.ID, model.TuitionStatusApproved)
	app := f.apply(t, tutor.ID, otherTuition.ID)
	_, err = f.svc.Applications.UpdateStatus(f.ctx, app.ID, other.ID, model.ApplicationStatusApproved)
	require.NoError(t, err)

	_, err = f.svc.Reviews.Create(f.ctx, other.ID, service.ReviewInput{
		TutorID:   tutor.ID,
		TuitionID: otherTuition.ID,
		Rating:    5,
	})
	require.NoError(t, err)

	updated, err := f.store.Users.GetByID(f.ctx, tutor.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.AverageRating)
	assert.Equal(t, 2, updated.ReviewCount)

	assert.Contains(t, notificationTypes(f.notifications(t, tutor.ID)), model.NotificationReviewReceived)

	reviews, pagination, err := f.svc.Reviews.ListForTutor(f.ctx, tutor.ID, model.NewPage(1, 10, 10))
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, 2, pagination.Total)
	for _, r := range reviews {
		require.NotNil(t, r.Student)
		assert.Equal(t, r.StudentID, r.Student.ID)
	}
}

func TestCreateReview_Rejections(t *testing.T) {
	f := newFixture(t)
	student, tutor, tuition := workedTogether(t, f)
	stranger := f.user(t, model.RoleTutor)

	tests := []struct {
		name      string
		studentID int64
		input     service.ReviewInput
		wantErr   error
	}{
		{
			name:      "rating out of range",
			studentID: student.ID,
			input:     service.ReviewInput{TutorID: tutor.ID, TuitionID: tuition.ID, Rating: 6},
			wantErr:   service.ErrValidation,
		},
		{
			name:      "zero rating",
			studentID: student.ID,
			input:     service.ReviewInput{TutorID: tutor.ID, TuitionID: tuition.ID, Rating: 0},
			wantErr:   service.ErrValidation,
		},
		{
			name:      "unknown tuition",
			studentID: student.ID,
			input:     service.ReviewInput{TutorID: tutor.ID, TuitionID: 999999, Rating: 5},
			wantErr:   service.ErrNotFound,
		},
		{
			name:      "not the tuition owner",
			studentID: stranger.ID,
			input:     service.ReviewInput{TutorID: tutor.ID, TuitionID: tuition.ID, Rating: 5},
			wantErr:   service.ErrForbidden,
		},
		{
			name:      "tutor never worked on tuition",
			studentID: student.ID,
			input:     service.ReviewInput{TutorID: stranger.ID, TuitionID: tuition.ID, Rating: 5},
			wantErr:   service.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Reviews.Create(f.ctx, tt.studentID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.svc.Reviews.Create(f.ctx, student.ID, service.ReviewInput{TutorID: tutor.ID, TuitionID: tuition.ID, Rating: 3})
	require.NoError(t, err)
	_, err = f.svc.Reviews.Create(f.ctx, student.ID, service.ReviewInput{TutorID: tutor.ID, TuitionID: tuition.ID, Rating: 5})
	assert.ErrorIs(t, err, service.ErrConflict)

	updated, err := f.store.Users.GetByID(f.ctx, tutor.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.AverageRating)
	assert.Equal(t, 1, updated.ReviewCount)
}

func TestCreateReview_PendingApplicationIsNotEnough(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	tutor := f.user(t, model.RoleTutor)
	tuition := f.tuition(t, student.ID, model.TuitionStatusApproved)
	f.apply(t, tutor.ID, tuition.ID)

	_, err := f.svc.Reviews.Create(f.ctx, student.ID, service.ReviewInput{TutorID: tutor.ID, TuitionID: tuition.ID, Rating: 5})
	assert.ErrorIs(t, err, service.ErrForbidden)
}

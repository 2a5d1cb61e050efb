package service_test

import (
	"testing"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tuitionInput() service.TuitionInput {
	return service.TuitionInput{
		Subject:    " Mathematics ",
		ClassLevel: "Class 8",
		Location:   "Chittagong",
		Budget:     3000,
		Schedule:   "Weekends",
		Mode:       model.TuitionModeOnline,
	}
}

func TestCreateTuition(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)

	tuition, err := f.svc.Tuitions.Create(f.ctx, student.ID, tuitionInput())
	require.NoError(t, err)
	assert.Equal(t, model.TuitionStatusPending, tuition.Status)
	assert.Equal(t, "Mathematics", tuition.Subject)

	in := tuitionInput()
	in.Budget = model.MinAmount - 1
	_, err = f.svc.Tuitions.Create(f.ctx, student.ID, in)
	assert.ErrorIs(t, err, service.ErrValidation)

	in = tuitionInput()
	in.Mode = "telepathy"
	_, err = f.svc.Tuitions.Create(f.ctx, student.ID, in)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestUpdateTuition(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	other := f.user(t, model.RoleStudent)
	tuition := f.tuition(t, student.ID, model.TuitionStatusApproved)

	budget := int64(7000)
	location := " Sylhet "
	updated, err := f.svc.Tuitions.Update(f.ctx, tuition.ID, student.ID, service.UpdateTuitionInput{
		Budget:   &budget,
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), updated.Budget)
	assert.Equal(t, "Sylhet", updated.Location)
	assert.Equal(t, "Physics", updated.Subject, "untouched fields stay")

	_, err = f.svc.Tuitions.Update(f.ctx, tuition.ID, other.ID, service.UpdateTuitionInput{Budget: &budget})
	assert.ErrorIs(t, err, service.ErrForbidden)

	low := int64(100)
	_, err = f.svc.Tuitions.Update(f.ctx, tuition.ID, student.ID, service.UpdateTuitionInput{Budget: &low})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.svc.Tuitions.Update(f.ctx, 999999, student.ID, service.UpdateTuitionInput{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetTuition_LiveApplicationCount(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	tuition := f.tuition(t, student.ID, model.TuitionStatusApproved)
	f.apply(t, f.user(t, model.RoleTutor).ID, tuition.ID)
	f.apply(t, f.user(t, model.RoleTutor).ID, tuition.ID)

	got, err := f.svc.Tuitions.Get(f.ctx, tuition.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ApplicationCount)
	require.NotNil(t, got.Student)
	assert.Equal(t, student.ID, got.Student.ID)

	_, err = f.svc.Tuitions.Get(f.ctx, 999999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteTuition_CascadesApplicationsAndPayments(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	admin := f.user(t, model.RoleAdmin)
	stranger := f.user(t, model.RoleStudent)
	tuition := f.tuition(t, student.ID, model.TuitionStatusApproved)
	app := f.apply(t, f.user(t, model.RoleTutor).ID, tuition.ID)

	_, err := f.svc.Payments.CreateManual(f.ctx, app.ID, student.ID, model.PaymentMethodMobileBanking)
	require.NoError(t, err)
	require.Len(t, f.payments(t), 1)

	err = f.svc.Tuitions.Delete(f.ctx, tuition.ID, stranger)
	assert.ErrorIs(t, err, service.ErrForbidden)

	require.NoError(t, f.svc.Tuitions.Delete(f.ctx, tuition.ID, student))

	assert.Empty(t, f.payments(t))
	gone, err := f.store.Applications.GetByID(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	err = f.svc.Tuitions.Delete(f.ctx, tuition.ID, admin)
	assert.ErrorIs(t, err, service.ErrNotFound)

	other := f.tuition(t, student.ID, model.TuitionStatusPending)
	assert.NoError(t, f.svc.Tuitions.Delete(f.ctx, other.ID, admin), "admin deletes any tuition")
}

func TestModerateTuition(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	pending := f.tuition(t, student.ID, model.TuitionStatusPending)
	rejected := f.tuition(t, student.ID, model.TuitionStatusPending)

	approved, err := f.svc.Tuitions.Approve(f.ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TuitionStatusApproved, approved.Status)

	_, err = f.svc.Tuitions.Reject(f.ctx, rejected.ID)
	require.NoError(t, err)

	notes := f.notifications(t, student.ID)
	require.Len(t, notes, 2)
	assert.Equal(t, model.NotificationTuitionRejected, notes[0].Type)
	assert.Equal(t, "Your tuition post for Physics has been rejected", notes[0].Message)
	assert.Equal(t, model.NotificationTuitionApproved, notes[1].Type)

	_, err = f.svc.Tuitions.Approve(f.ctx, pending.ID)
	assert.ErrorIs(t, err, service.ErrConflict, "already approved")

	ongoing := f.tuition(t, student.ID, model.TuitionStatusOngoing)
	_, err = f.svc.Tuitions.Reject(f.ctx, ongoing.ID)
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = f.svc.Tuitions.Approve(f.ctx, 999999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListTuitions(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, model.RoleStudent)
	other := f.user(t, model.RoleStudent)

	cheap := f.tuition(t, student.ID, model.TuitionStatusApproved)
	expensive := f.tuition(t, other.ID, model.TuitionStatusApproved)
	budget := int64(9000)
	subject := "Chemistry"
	_, err := f.svc.Tuitions.Update(f.ctx, expensive.ID, other.ID, service.UpdateTuitionInput{Budget: &budget, Subject: &subject})
	require.NoError(t, err)
	f.tuition(t, student.ID, model.TuitionStatusPending)
	f.tuition(t, student.ID, model.TuitionStatusRejected)

	page := model.NewPage(1, 10, 10)

	public, pagination, err := f.svc.Tuitions.ListPublic(f.ctx, model.TuitionFilter{Sort: model.TuitionSortBudgetDesc, Page: page})
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, 2, pagination.Total)
	assert.Equal(t, expensive.ID, public[0].ID)
	assert.Equal(t, cheap.ID, public[1].ID)
	assert.NotNil(t, public[0].Student)

	bySubject, _, err := f.svc.Tuitions.ListPublic(f.ctx, model.TuitionFilter{Subject: "chem", Page: page})
	require.NoError(t, err)
	require.Len(t, bySubject, 1)
	assert.Equal(t, expensive.ID, bySubject[0].ID)

	mine, _, err := f.svc.Tuitions.ListForStudent(f.ctx, student.ID, "", page)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	minePending, _, err := f.svc.Tuitions.ListForStudent(f.ctx, student.ID, model.TuitionStatusPending, page)
	require.NoError(t, err)
	assert.Len(t, minePending, 1)

	_, _, err = f.svc.Tuitions.ListForStudent(f.ctx, student.ID, "Bogus", page)
	assert.ErrorIs(t, err, service.ErrValidation)

	all, _, err := f.svc.Tuitions.ListAll(f.ctx, "", "", page)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	rejected, _, err := f.svc.Tuitions.ListAll(f.ctx, model.TuitionStatusRejected, "physics", page)
	require.NoError(t, err)
	assert.Len(t, rejected, 1)
}

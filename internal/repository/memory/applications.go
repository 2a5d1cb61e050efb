package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
)

type applicationStore struct{ s *Store }

func (r *applicationStore) Create(ctx context.Context, app *model.Application) error {
	defer r.s.lock(ctx)()
	for _, a := range r.s.data.applications {
		if a.TuitionID == app.TuitionID && a.TutorID == app.TutorID {
			return fmt.Errorf("create application: %w", base.ErrDuplicate)
		}
	}
	app.ID = r.s.nextID()
	app.CreatedAt = r.s.now()
	app.UpdatedAt = app.CreatedAt
	r.s.data.applications[app.ID] = copyApplication(app)
	return nil
}

func (r *applicationStore) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	defer r.s.lock(ctx)()
	if a, ok := r.s.data.applications[id]; ok {
		return copyApplication(a), nil
	}
	return nil, nil
}

func (r *applicationStore) GetByTuitionAndTutor(ctx context.Context, tuitionID, tutorID int64) (*model.Application, error) {
	defer r.s.lock(ctx)()
	for _, a := range r.s.data.applications {
		if a.TuitionID == tuitionID && a.TutorID == tutorID {
			return copyApplication(a), nil
		}
	}
	return nil, nil
}

func (r *applicationStore) Update(ctx context.Context, app *model.Application) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.data.applications[app.ID]
	if !ok || stored.Status != model.ApplicationStatusPending {
		return fmt.Errorf("update application %d: %w", app.ID, base.ErrStale)
	}
	stored.Qualifications = app.Qualifications
	stored.Experience = app.Experience
	stored.ExpectedSalary = app.ExpectedSalary
	stored.UpdatedAt = r.s.now()
	app.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *applicationStore) UpdateStatus(ctx context.Context, id int64, status model.ApplicationStatus) error {
	defer r.s.lock(ctx)()
	a, ok := r.s.data.applications[id]
	if !ok {
		return fmt.Errorf("application %d not found", id)
	}
	a.Status = status
	a.UpdatedAt = r.s.now()
	return nil
}

func (r *applicationStore) RejectSiblings(ctx context.Context, tuitionID, keepID int64) ([]*model.Application, error) {
	defer r.s.lock(ctx)()
	rejected := []*model.Application{}
	for _, a := range r.s.data.applications {
		if a.TuitionID != tuitionID || a.ID == keepID || a.Status == model.ApplicationStatusRejected {
			continue
		}
		a.Status = model.ApplicationStatusRejected
		a.UpdatedAt = r.s.now()
		rejected = append(rejected, copyApplication(a))
	}
	return rejected, nil
}

func (r *applicationStore) CountByTuition(ctx context.Context, tuitionID int64) (int, error) {
	defer r.s.lock(ctx)()
	count := 0
	for _, a := range r.s.data.applications {
		if a.TuitionID == tuitionID {
			count++
		}
	}
	return count, nil
}

func (r *applicationStore) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	delete(r.s.data.applications, id)
	return nil
}

func (r *applicationStore) DeleteByTuition(ctx context.Context, tuitionID int64) error {
	defer r.s.lock(ctx)()
	for id, a := range r.s.data.applications {
		if a.TuitionID == tuitionID {
			delete(r.s.data.applications, id)
		}
	}
	return nil
}

func (r *applicationStore) ListByTutor(ctx context.Context, tutorID int64) ([]*model.Application, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(a *model.Application) bool { return a.TutorID == tutorID }), nil
}

func (r *applicationStore) ListByStudent(ctx context.Context, studentID int64) ([]*model.Application, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(a *model.Application) bool {
		t, ok := r.s.data.tuitions[a.TuitionID]
		return ok && t.StudentID == studentID
	}), nil
}

// collect вызывается под r.s.mu
func (r *applicationStore) collect(match func(a *model.Application) bool) []*model.Application {
	apps := []*model.Application{}
	for _, a := range r.s.data.applications {
		if match(a) {
			apps = append(apps, copyApplication(a))
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID > apps[j].ID
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
	return apps
}

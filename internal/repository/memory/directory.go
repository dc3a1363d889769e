package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

type userRepository struct {
	*db
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

// insertUser must be called with the write lock held.
func (r *userRepository) insertUser(user *model.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&user.Base)
	c := *user
	r.users[c.ID] = &c
	return nil
}

func (r *userRepository) CreatePatient(ctx context.Context, user *model.User, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insertUser(user); err != nil {
		return err
	}
	patient.UserID = user.ID
	r.stamp(&patient.Base)
	c := *patient
	r.patients[c.ID] = &c
	return nil
}

func (r *userRepository) CreateDoctor(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doctor.DepartmentID != nil {
		if _, ok := r.departments[*doctor.DepartmentID]; !ok {
			return repository.ErrNotFound
		}
	}
	if err := r.insertUser(user); err != nil {
		return err
	}
	doctor.UserID = user.ID
	r.stamp(&doctor.Base)
	c := *doctor
	r.doctors[c.ID] = &c
	return nil
}

func (r *userRepository) CreateAdmin(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertUser(user)
}

// SetActive flips the user and whichever profile it owns.
func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.now()
	u.Active = active
	u.UpdatedAt = now
	for _, p := range r.patients {
		if p.UserID == id {
			p.Active = active
			p.UpdatedAt = now
		}
	}
	for _, d := range r.doctors {
		if d.UserID == id {
			d.Active = active
			d.UpdatedAt = now
		}
	}
	return nil
}

type patientRepository struct {
	*db
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.patients {
		if p.UserID == userID {
			c := *p
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[patient.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.FullName = patient.FullName
	p.Contact = patient.Contact
	p.UpdatedAt = r.now()
	patient.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *patientRepository) Search(ctx context.Context, q string) ([]*model.Patient, error) {
	q = strings.ToLower(q)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Patient
	for _, p := range r.patients {
		if strings.Contains(strings.ToLower(p.FullName), q) || strings.Contains(strings.ToLower(p.Contact), q) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type doctorRepository struct {
	*db
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.doctors {
		if d.UserID == userID {
			c := *d
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[doctor.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if doctor.DepartmentID != nil {
		if _, ok := r.departments[*doctor.DepartmentID]; !ok {
			return repository.ErrNotFound
		}
	}
	d.FullName = doctor.FullName
	d.Specialization = doctor.Specialization
	d.DepartmentID = doctor.DepartmentID
	d.UpdatedAt = r.now()
	doctor.UpdatedAt = d.UpdatedAt
	return nil
}

func (r *doctorRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, availability string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Availability = availability
	d.UpdatedAt = r.now()
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	if filters == nil {
		filters = &model.DoctorFilters{}
	}
	name := strings.ToLower(filters.Name)
	spec := strings.ToLower(filters.Specialization)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Doctor
	for _, d := range r.doctors {
		if !d.Active && !filters.IncludeInactive {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(d.FullName), name) {
			continue
		}
		if spec != "" && !strings.Contains(strings.ToLower(d.Specialization), spec) {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type departmentRepository struct {
	*db
}

func (r *departmentRepository) Create(ctx context.Context, dept *model.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.departments {
		if strings.EqualFold(d.Name, dept.Name) {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&dept.Base)
	c := *dept
	r.departments[c.ID] = &c
	return nil
}

func (r *departmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]*model.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Department, 0, len(r.departments))
	for _, d := range r.departments {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type outboxRepository struct {
	*db
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := r.now()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = now
	event.UpdatedAt = now
	c := *event
	r.outbox[c.ID] = &c
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	var out []*model.OutboxEvent
	for _, e := range r.outbox {
		switch e.Status {
		case model.OutboxStatusPending:
		case model.OutboxStatusRetry:
			if e.RetryAt != nil && e.RetryAt.After(now) {
				continue
			}
		default:
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *outboxRepository) update(id uuid.UUID, fn func(e *model.OutboxEvent, now time.Time)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.now()
	fn(e, now)
	e.UpdatedAt = now
	return nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(e *model.OutboxEvent, now time.Time) {
		e.Status = model.OutboxStatusProcessed
		e.ProcessedAt = &now
		e.ErrorMessage = nil
	})
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error {
	return r.update(id, func(e *model.OutboxEvent, now time.Time) {
		e.Status = model.OutboxStatusRetry
		e.ErrorMessage = &errMsg
		e.RetryCount++
		e.RetryAt = &retryAt
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.update(id, func(e *model.OutboxEvent, now time.Time) {
		e.Status = model.OutboxStatusFailed
		e.ErrorMessage = &errMsg
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, e := range r.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.outbox, id)
			n++
		}
	}
	return n, nil
}

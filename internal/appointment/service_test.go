package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selamhealth/clinic-scheduling/internal/audit"
	"github.com/selamhealth/clinic-scheduling/internal/closure"
	"github.com/selamhealth/clinic-scheduling/internal/config"
	"github.com/selamhealth/clinic-scheduling/internal/notify"
)

// In-memory fakes. The repo mirrors the Postgres behavior the service
// depends on: conditional status updates report no-rows as not-found, the
// slot uniqueness rule covers non-cancelled rows only, and queue positions
// are MAX+1 over every row for the day.

type memRepo struct {
	mu        sync.Mutex
	providers map[uuid.UUID]*Provider
	patients  map[uuid.UUID]*Patient
	appts     map[uuid.UUID]*Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{
		providers: map[uuid.UUID]*Provider{},
		patients:  map[uuid.UUID]*Patient{},
		appts:     map[uuid.UUID]*Appointment{},
	}
}

func (m *memRepo) GetProviderByID(_ context.Context, id uuid.UUID) (*Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) ListAppointments(_ context.Context, f ListFilter) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if f.ProviderID != nil && a.ProviderID != *f.ProviderID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.Date != "" && a.Date != f.Date {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *memRepo) CountActive(_ context.Context, providerID uuid.UUID, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.appts {
		if a.ProviderID == providerID && a.Date == date && a.Status != StatusCancelled {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) GetActiveAt(_ context.Context, providerID uuid.UUID, date, hhmm string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.ProviderID == providerID && a.Date == date && a.Time == hhmm && a.Status != StatusCancelled {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *memRepo) ListBookedTimes(_ context.Context, providerID uuid.UUID, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var times []string
	for _, a := range m.appts {
		if a.ProviderID == providerID && a.Date == date && a.Status != StatusCancelled {
			times = append(times, a.Time)
		}
	}
	return times, nil
}

func (m *memRepo) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.appts {
		if existing.ProviderID == a.ProviderID && existing.Date == a.Date &&
			existing.Time == a.Time && existing.Status != StatusCancelled {
			return nil, ErrTimeSlotTaken
		}
	}
	cp := *a
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.appts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpdateClinical(_ context.Context, id uuid.UUID, u ClinicalUpdate) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if u.Diagnosis != nil {
		a.Diagnosis = *u.Diagnosis
	}
	if u.VisitNotes != nil {
		a.VisitNotes = *u.VisitNotes
	}
	if u.Prescriptions != nil {
		a.Prescriptions = u.Prescriptions
	}
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memRepo) AssignQueuePosition(_ context.Context, id uuid.UUID, at time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != StatusConfirmed || a.QueuePosition != nil {
		return nil, ErrAppointmentNotFound
	}
	max := 0
	for _, other := range m.appts {
		if other.ProviderID == a.ProviderID && other.Date == a.Date &&
			other.QueuePosition != nil && *other.QueuePosition > max {
			max = *other.QueuePosition
		}
	}
	pos := max + 1
	a.QueuePosition = &pos
	a.CheckedInAt = &at
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memRepo) ListConfirmedByDate(_ context.Context, date string) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if a.Date == date && a.Status == StatusConfirmed {
			out = append(out, *a)
		}
	}
	return out, nil
}

// memLocker serializes critical sections per (provider, date) with plain
// mutexes, like the Redis locker does across processes.
type memLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemLocker() *memLocker {
	return &memLocker{locks: map[string]*sync.Mutex{}}
}

func (l *memLocker) WithScheduleLock(ctx context.Context, providerID uuid.UUID, date string, fn func(ctx context.Context) error) error {
	key := providerID.String() + ":" + date
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAuditor) Record(_ context.Context, ev audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type closureStub struct {
	byDate map[string]*closure.Closure
}

func (c *closureStub) FindClosure(_ context.Context, date string) (*closure.Closure, error) {
	return c.byDate[date], nil
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	notifier *recordingNotifier
	auditor  *recordingAuditor
	closures *closureStub
	provider *Provider
	patient  *Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemRepo()
	notifier := &recordingNotifier{}
	auditor := &recordingAuditor{}
	closures := &closureStub{byDate: map[string]*closure.Closure{}}

	provider := &Provider{
		ID:                uuid.New(),
		Name:              "Dr. Alem Tesfaye",
		Specialization:    "Cardiology",
		MaxPatientsPerDay: 3,
		Availability: []WeeklyInterval{
			{Day: "monday", Start: "09:00", End: "11:00"},
		},
	}
	patient := &Patient{ID: uuid.New(), Name: "Hana Bekele"}
	repo.providers[provider.ID] = provider
	repo.patients[patient.ID] = patient

	settings := func() config.Settings {
		return config.Settings{SlotStride: 30 * time.Minute}
	}

	return &fixture{
		svc:      NewService(repo, closures, newMemLocker(), notifier, auditor, settings),
		repo:     repo,
		notifier: notifier,
		auditor:  auditor,
		closures: closures,
		provider: provider,
		patient:  patient,
	}
}

func (f *fixture) addPatient() *Patient {
	p := &Patient{ID: uuid.New(), Name: "Extra Patient"}
	f.repo.mu.Lock()
	f.repo.patients[p.ID] = p
	f.repo.mu.Unlock()
	return p
}

func (f *fixture) book(t *testing.T, patientID uuid.UUID, hhmm string) *Appointment {
	t.Helper()
	appt, err := f.svc.CreateAppointment(context.Background(), CreateParams{
		ProviderID: f.provider.ID,
		PatientID:  patientID,
		Date:       monday,
		Time:       hhmm,
		Actor:      Actor{ID: patientID, Role: RolePatient},
	})
	require.NoError(t, err)
	return appt
}

var staff = Actor{ID: uuid.New(), Role: RoleReceptionist}
var doctor = Actor{ID: uuid.New(), Role: RoleDoctor}

func TestCreateAppointment(t *testing.T) {
	t.Run("books a pending appointment with frozen calendar metadata", func(t *testing.T) {
		f := newFixture(t)

		appt, err := f.svc.CreateAppointment(context.Background(), CreateParams{
			ProviderID: f.provider.ID,
			PatientID:  f.patient.ID,
			Date:       "2025-09-11",
			Time:       "09:00",
			Symptoms:   "headache",
			Actor:      Actor{ID: f.patient.ID, Role: RolePatient},
		})
		require.NoError(t, err)

		assert.Equal(t, StatusPending, appt.Status)
		assert.Equal(t, "Meskerem 1, 2018", appt.EthiopianDate.Display)
		assert.Equal(t, 1, appt.EthiopianDate.Day)
		assert.Equal(t, 2018, appt.EthiopianDate.Year)

		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, notify.KindAppointmentCreated, f.notifier.sent[0].Kind)
		assert.Equal(t, f.patient.ID, f.notifier.sent[0].UserID)

		require.Len(t, f.auditor.events, 1)
		assert.Equal(t, audit.ActionCreate, f.auditor.events[0].Action)
	})

	t.Run("full day closure blocks any time", func(t *testing.T) {
		f := newFixture(t)
		f.closures.byDate["2025-09-11"] = &closure.Closure{
			Date: "2025-09-11", IsFullDay: true, Type: closure.TypeHoliday,
		}

		for _, hhmm := range []string{"09:00", "13:30", "16:00"} {
			_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
				ProviderID: f.provider.ID,
				PatientID:  f.patient.ID,
				Date:       "2025-09-11",
				Time:       hhmm,
				Actor:      Actor{ID: f.patient.ID, Role: RolePatient},
			})
			assert.ErrorIs(t, err, ErrClinicClosed, hhmm)
		}
	})

	t.Run("partial closure blocks its window inclusively", func(t *testing.T) {
		f := newFixture(t)
		start, end := "13:00", "15:00"
		f.closures.byDate[monday] = &closure.Closure{
			Date: monday, StartTime: &start, EndTime: &end, Type: closure.TypeMaintenance,
		}

		for _, hhmm := range []string{"13:00", "14:00", "15:00"} {
			_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
				ProviderID: f.provider.ID,
				PatientID:  f.patient.ID,
				Date:       monday,
				Time:       hhmm,
				Actor:      Actor{ID: f.patient.ID, Role: RolePatient},
			})
			assert.ErrorIs(t, err, ErrClinicClosed, hhmm)
		}

		appt := f.book(t, f.patient.ID, "09:00")
		assert.Equal(t, StatusPending, appt.Status)
	})

	t.Run("specialization matches case-insensitively", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
			ProviderID:        f.provider.ID,
			PatientID:         f.patient.ID,
			Date:              monday,
			Time:              "09:00",
			ExpectedSpecialty: "cardiology",
			Actor:             Actor{ID: f.patient.ID, Role: RolePatient},
		})
		assert.NoError(t, err)

		_, err = f.svc.CreateAppointment(context.Background(), CreateParams{
			ProviderID:        f.provider.ID,
			PatientID:         f.patient.ID,
			Date:              monday,
			Time:              "09:30",
			ExpectedSpecialty: "Dermatology",
			Actor:             Actor{ID: f.patient.ID, Role: RolePatient},
		})
		assert.ErrorIs(t, err, ErrSpecializationMismatch)
	})

	t.Run("capacity blocks a structurally free slot", func(t *testing.T) {
		f := newFixture(t)

		f.book(t, f.addPatient().ID, "09:00")
		f.book(t, f.addPatient().ID, "09:30")
		f.book(t, f.addPatient().ID, "10:00")

		_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
			ProviderID: f.provider.ID,
			PatientID:  f.patient.ID,
			Date:       monday,
			Time:       "10:30",
			Actor:      Actor{ID: f.patient.ID, Role: RolePatient},
		})
		assert.ErrorIs(t, err, ErrProviderFullyBooked)
	})

	t.Run("same slot twice conflicts, cancelled slot frees up", func(t *testing.T) {
		f := newFixture(t)

		first := f.book(t, f.patient.ID, "09:00")

		other := f.addPatient()
		_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
			ProviderID: f.provider.ID,
			PatientID:  other.ID,
			Date:       monday,
			Time:       "09:00",
			Actor:      Actor{ID: other.ID, Role: RolePatient},
		})
		assert.ErrorIs(t, err, ErrTimeSlotTaken)

		_, err = f.svc.Cancel(context.Background(), first.ID, Actor{ID: f.patient.ID, Role: RolePatient})
		require.NoError(t, err)

		rebooked := f.book(t, other.ID, "09:00")
		assert.Equal(t, StatusPending, rebooked.Status)
	})

	t.Run("concurrent requests for one slot yield exactly one winner", func(t *testing.T) {
		f := newFixture(t)
		other := f.addPatient()

		results := make(chan error, 2)
		var wg sync.WaitGroup
		for _, pid := range []uuid.UUID{f.patient.ID, other.ID} {
			wg.Add(1)
			go func(pid uuid.UUID) {
				defer wg.Done()
				_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
					ProviderID: f.provider.ID,
					PatientID:  pid,
					Date:       monday,
					Time:       "10:00",
					Actor:      Actor{ID: pid, Role: RolePatient},
				})
				results <- err
			}(pid)
		}
		wg.Wait()
		close(results)

		var wins, conflicts int
		for err := range results {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrTimeSlotTaken):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, 1, conflicts)
	})

	t.Run("maintenance mode rejects bookings", func(t *testing.T) {
		f := newFixture(t)
		f.svc.settings = func() config.Settings {
			return config.Settings{MaintenanceMode: true, SlotStride: 30 * time.Minute}
		}

		_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
			ProviderID: f.provider.ID,
			PatientID:  f.patient.ID,
			Date:       monday,
			Time:       "09:00",
			Actor:      Actor{ID: f.patient.ID, Role: RolePatient},
		})
		assert.ErrorIs(t, err, ErrMaintenanceMode)
	})

	t.Run("rejects unaligned or malformed schedule input", func(t *testing.T) {
		f := newFixture(t)

		cases := []struct{ date, hhmm string }{
			{monday, "09:10"},
			{monday, "9am"},
			{"2025/09/15", "09:00"},
		}
		for _, tc := range cases {
			_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
				ProviderID: f.provider.ID,
				PatientID:  f.patient.ID,
				Date:       tc.date,
				Time:       tc.hhmm,
				Actor:      Actor{ID: f.patient.ID, Role: RolePatient},
			})
			assert.ErrorIs(t, err, ErrInvalidSchedule, "%s %s", tc.date, tc.hhmm)
		}
	})

	t.Run("unknown provider or patient", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateAppointment(context.Background(), CreateParams{
			ProviderID: uuid.New(),
			PatientID:  f.patient.ID,
			Date:       monday,
			Time:       "09:00",
		})
		assert.ErrorIs(t, err, ErrProviderNotFound)

		_, err = f.svc.CreateAppointment(context.Background(), CreateParams{
			ProviderID: f.provider.ID,
			PatientID:  uuid.New(),
			Date:       monday,
			Time:       "09:00",
		})
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})
}

func TestTransitionStatus(t *testing.T) {
	t.Run("pending to confirmed fires side effects", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")

		updated, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, staff)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, updated.Status)

		// creation notification + status change notification
		assert.Len(t, f.notifier.sent, 2)
		assert.Equal(t, notify.KindStatusChange, f.notifier.sent[1].Kind)

		require.Len(t, f.auditor.events, 2)
		assert.Equal(t, audit.ActionStatusChange, f.auditor.events[1].Action)
	})

	t.Run("illegal transitions carry context", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")

		_, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusCompleted, doctor)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, StatusPending, te.From)
		assert.Equal(t, StatusCompleted, te.To)
		assert.Equal(t, []Status{StatusConfirmed, StatusCancelled}, te.Allowed)
	})

	t.Run("terminal statuses accept nothing", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")

		_, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, staff)
		require.NoError(t, err)
		_, err = f.svc.TransitionStatus(context.Background(), appt.ID, StatusCompleted, doctor)
		require.NoError(t, err)

		_, err = f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, staff)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("patients cannot drive the forward lifecycle", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")

		_, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, Actor{ID: f.patient.ID, Role: RolePatient})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("frozen ethiopian date survives transitions", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")
		display := appt.EthiopianDate.Display

		_, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, staff)
		require.NoError(t, err)

		reread, err := f.svc.GetAppointment(context.Background(), appt.ID)
		require.NoError(t, err)
		assert.Equal(t, display, reread.EthiopianDate.Display)
	})
}

func TestCancel(t *testing.T) {
	t.Run("patient cancels own pending appointment", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")

		updated, err := f.svc.Cancel(context.Background(), appt.ID, Actor{ID: f.patient.ID, Role: RolePatient})
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, updated.Status)
	})

	t.Run("patient cannot cancel own confirmed appointment", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")
		_, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, staff)
		require.NoError(t, err)

		_, err = f.svc.Cancel(context.Background(), appt.ID, Actor{ID: f.patient.ID, Role: RolePatient})
		assert.ErrorIs(t, err, ErrCannotCancelConfirmed)
	})

	t.Run("patient cannot cancel someone else's appointment", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")

		_, err := f.svc.Cancel(context.Background(), appt.ID, Actor{ID: uuid.New(), Role: RolePatient})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("staff cancels a confirmed appointment", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")
		_, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, staff)
		require.NoError(t, err)

		updated, err := f.svc.Cancel(context.Background(), appt.ID, staff)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, updated.Status)
	})

	t.Run("terminal appointments stay terminal", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")
		_, err := f.svc.Cancel(context.Background(), appt.ID, staff)
		require.NoError(t, err)

		_, err = f.svc.Cancel(context.Background(), appt.ID, staff)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
	})
}

func TestCheckIn(t *testing.T) {
	confirm := func(t *testing.T, f *fixture, appt *Appointment) {
		t.Helper()
		_, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, staff)
		require.NoError(t, err)
	}

	t.Run("requires confirmed status", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")

		_, err := f.svc.CheckIn(context.Background(), appt.ID, staff)
		assert.ErrorIs(t, err, ErrNotConfirmed)
	})

	t.Run("positions increase and are never reused", func(t *testing.T) {
		f := newFixture(t)

		first := f.book(t, f.addPatient().ID, "09:00")
		second := f.book(t, f.addPatient().ID, "09:30")
		confirm(t, f, first)
		confirm(t, f, second)

		a1, err := f.svc.CheckIn(context.Background(), first.ID, staff)
		require.NoError(t, err)
		require.NotNil(t, a1.QueuePosition)
		assert.Equal(t, 1, *a1.QueuePosition)
		assert.NotNil(t, a1.CheckedInAt)

		a2, err := f.svc.CheckIn(context.Background(), second.ID, staff)
		require.NoError(t, err)
		assert.Equal(t, 2, *a2.QueuePosition)

		// Cancelling the first after check-in must not free position 1.
		_, err = f.svc.Cancel(context.Background(), first.ID, staff)
		require.NoError(t, err)

		third := f.book(t, f.addPatient().ID, "09:00")
		confirm(t, f, third)

		a3, err := f.svc.CheckIn(context.Background(), third.ID, staff)
		require.NoError(t, err)
		assert.Equal(t, 3, *a3.QueuePosition)
	})

	t.Run("check-in is idempotent", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")
		confirm(t, f, appt)

		a1, err := f.svc.CheckIn(context.Background(), appt.ID, staff)
		require.NoError(t, err)
		a2, err := f.svc.CheckIn(context.Background(), appt.ID, staff)
		require.NoError(t, err)
		assert.Equal(t, *a1.QueuePosition, *a2.QueuePosition)
	})

	t.Run("patients cannot check themselves in", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, f.patient.ID, "09:00")
		confirm(t, f, appt)

		_, err := f.svc.CheckIn(context.Background(), appt.ID, Actor{ID: f.patient.ID, Role: RolePatient})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestUpdateClinicalDetails(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.patient.ID, "09:00")

	diagnosis := "hypertension stage 1"
	updated, err := f.svc.UpdateClinicalDetails(context.Background(), appt.ID, ClinicalUpdate{
		Diagnosis:     &diagnosis,
		Prescriptions: []string{"amlodipine 5mg"},
	}, doctor)
	require.NoError(t, err)
	assert.Equal(t, diagnosis, updated.Diagnosis)
	assert.Equal(t, []string{"amlodipine 5mg"}, updated.Prescriptions)

	_, err = f.svc.UpdateClinicalDetails(context.Background(), appt.ID, ClinicalUpdate{
		Diagnosis: &diagnosis,
	}, Actor{ID: f.patient.ID, Role: RolePatient})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateClinicalDetails(context.Background(), appt.ID, ClinicalUpdate{
		Diagnosis: &diagnosis,
	}, staff)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetAvailableSlots(t *testing.T) {
	f := newFixture(t)

	f.book(t, f.patient.ID, "09:30")

	sched, err := f.svc.GetAvailableSlots(context.Background(), f.provider.ID, monday)
	require.NoError(t, err)

	assert.Equal(t, 2, sched.RemainingCapacity)
	byTime := map[string]bool{}
	for _, s := range sched.Slots {
		byTime[s.Time] = s.Available
	}
	assert.True(t, byTime["09:00"])
	assert.False(t, byTime["09:30"])
}

func TestRemindConfirmed(t *testing.T) {
	f := newFixture(t)

	appt := f.book(t, f.patient.ID, "09:00")
	_, err := f.svc.TransitionStatus(context.Background(), appt.ID, StatusConfirmed, staff)
	require.NoError(t, err)

	sentBefore := len(f.notifier.sent)
	require.NoError(t, f.svc.RemindConfirmed(context.Background(), monday))

	require.Len(t, f.notifier.sent, sentBefore+1)
	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, notify.KindReminder, last.Kind)
	assert.Equal(t, f.patient.ID, last.UserID)
}

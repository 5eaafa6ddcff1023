package booking

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/doctor"
	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/receipt"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/validate"
)

const orthopedics = "กระดูกและข้อ"

type fakeLedger struct {
	mu      sync.Mutex
	counter *redisclient.Counter
	entries []appointment.Appointment
}

func (l *fakeLedger) Append(ctx context.Context, in appointment.NewEntry) (*appointment.Appointment, error) {
	n, err := l.counter.Next(ctx)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a := appointment.Appointment{
		ID:              int64(len(l.entries) + 1),
		QueueNumber:     n,
		PatientName:     in.PatientName,
		DoctorName:      in.DoctorName,
		Department:      in.Department,
		AppointmentType: in.AppointmentType,
		Date:            in.Date,
		Time:            in.Time,
		Status:          in.Status,
		OwnerEmail:      in.OwnerEmail,
	}
	l.entries = append(l.entries, a)
	return &a, nil
}

func (l *fakeLedger) UpdateStatus(ctx context.Context, id int64, status appointment.Status) (*appointment.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Status = status
			a := l.entries[i]
			return &a, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

type stubAssigner struct {
	name string

	// Named doctors accepted by Check; empty accepts any name.
	roster []string
	taken  string
}

func (s stubAssigner) Assign(ctx context.Context, department string, date time.Time, timeLabel string) (*doctor.Doctor, error) {
	if s.name == "" {
		return nil, doctor.ErrNoDoctorAvailable
	}
	return &doctor.Doctor{ID: 5, Name: s.name, Department: department}, nil
}

func (s stubAssigner) Check(ctx context.Context, department, doctorName string, date time.Time, timeLabel string) (*doctor.Doctor, error) {
	name := strings.TrimSpace(doctorName)
	if len(s.roster) > 0 && !slices.Contains(s.roster, name) {
		return nil, validate.Errors{"doctor_name": "is not an active doctor of this department"}
	}
	if timeLabel == s.taken {
		return nil, doctor.ErrNoDoctorAvailable
	}
	return &doctor.Doctor{ID: 7, Name: name, Department: department}, nil
}

type brokenRenderer struct{}

func (brokenRenderer) Name() string { return "visual" }

func (brokenRenderer) Render(ctx context.Context, r receipt.Receipt) ([]byte, error) {
	return nil, errors.New("font missing")
}

type fixture struct {
	mr       *miniredis.Miniredis
	workflow *Workflow
	ledger   *fakeLedger
	ctx      context.Context
}

func newFixture(t *testing.T, assigner DoctorAssigner, renderer ReceiptRenderer) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logging.Nop()
	if renderer == nil {
		renderer = receipt.NewGenerator(receipt.NewTextRenderer(), nil, nil, logger)
	}
	ledger := &fakeLedger{counter: redisclient.NewCounter(client, redisclient.QueueNumberKey)}
	store := NewRedisStore(client, time.Hour, time.Hour, logger)
	locker := redisclient.NewRedisLocker(client, 5*time.Second, 2*time.Second)

	w := NewWorkflow(store, locker, ledger, assigner, renderer, nil, 5*time.Second, logger)
	w.now = func() time.Time { return time.Date(2025, 9, 20, 10, 0, 0, 0, time.Local) }

	return &fixture{mr: mr, workflow: w, ledger: ledger, ctx: context.Background()}
}

func validPatient() PatientRecord {
	return PatientRecord{
		Prefix:      "Ms.",
		FirstName:   "Somsri",
		LastName:    "Jaidee",
		Gender:      "female",
		DateOfBirth: "1990-04-01",
		Nationality: "Thai",
		CitizenID:   "1234567890123",
		Phone:       "0812345678",
		Email:       "Somsri@Example.com",
		Consent:     true,
	}
}

// walk takes a session through department, schedule and patient steps.
func (f *fixture) walk(t *testing.T, sessionID string, sel SelectionType, doctorName string) {
	t.Helper()
	_, err := f.workflow.ChooseDepartment(f.ctx, sessionID, "", DepartmentInput{Department: orthopedics, SelectionType: sel})
	require.NoError(t, err)
	_, err = f.workflow.ChooseSchedule(f.ctx, sessionID, "", ScheduleInput{
		DoctorName: doctorName,
		Date:       "2025-09-23",
		Time:       "9:00-10:00",
		Illness:    "knee pain",
	})
	require.NoError(t, err)
	_, err = f.workflow.SubmitPatient(f.ctx, sessionID, "", validPatient())
	require.NoError(t, err)
}

func TestAutoDraftAfterScheduleStep(t *testing.T) {
	f := newFixture(t, stubAssigner{name: "Dr. Auto"}, nil)

	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, d.SessionID)

	_, err = f.workflow.ChooseDepartment(f.ctx, d.SessionID, "", DepartmentInput{Department: orthopedics, SelectionType: SelectionAuto})
	require.NoError(t, err)
	got, err := f.workflow.ChooseSchedule(f.ctx, d.SessionID, "", ScheduleInput{
		Date:        "2025-09-23",
		Time:        "9:00-10:00",
		Attachments: []string{"xray.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, StepSchedule, got.Step)
	assert.Equal(t, orthopedics, got.Department)
	assert.Equal(t, SelectionAuto, got.SelectionType)
	assert.Equal(t, "9:00-10:00", got.Time)
	assert.Equal(t, "2025-09-23", got.Date)
	assert.Empty(t, got.DoctorName)

	raw, err := f.mr.Get(draftKey(d.SessionID))
	require.NoError(t, err)
	assert.NotContains(t, raw, "xray.png")

	assert.Equal(t, map[string]string{"department": orthopedics, "selection_type": "AUTO"}, got.View(StepDepartment))
	assert.Equal(t, map[string]string{"date": "2025-09-23", "time": "9:00-10:00"}, got.View(StepSchedule))
}

func TestPatientCitizenIDValidation(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	_, err = f.workflow.ChooseDepartment(f.ctx, d.SessionID, "", DepartmentInput{Department: orthopedics, SelectionType: SelectionManual})
	require.NoError(t, err)
	_, err = f.workflow.ChooseSchedule(f.ctx, d.SessionID, "", ScheduleInput{DoctorName: "Dr. Somchai", Date: "2025-09-23", Time: "9:00-10:00"})
	require.NoError(t, err)

	bad := validPatient()
	bad.CitizenID = "12345"
	_, err = f.workflow.SubmitPatient(f.ctx, d.SessionID, "", bad)
	var verr validate.Errors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be exactly 13 digits", verr["citizen_id"])

	cur, err := f.workflow.Draft(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, StepSchedule, cur.Step)

	got, err := f.workflow.SubmitPatient(f.ctx, d.SessionID, "", validPatient())
	require.NoError(t, err)
	assert.Equal(t, StepPatient, got.Step)
}

func TestPatientRecordValidate(t *testing.T) {
	p := validPatient()
	require.NoError(t, p.Validate())
	assert.Equal(t, "Ms. Somsri Jaidee", p.FullName())

	p.Phone = "12345678901"
	p.Email = "not-an-email"
	p.Consent = false
	err := p.Validate()
	var verr validate.Errors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be 9-10 digits", verr["phone"])
	assert.Contains(t, verr, "email")
	assert.Contains(t, verr, "consent")
}

func TestQueueNumbersIncreaseWithinSession(t *testing.T) {
	f := newFixture(t, stubAssigner{name: "Dr. Auto"}, nil)
	require.NoError(t, f.mr.Set(redisclient.QueueNumberKey, "3"))

	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)

	f.walk(t, d.SessionID, SelectionAuto, "")
	first, err := f.workflow.Confirm(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	_, err = f.workflow.Finish(f.ctx, d.SessionID, "")
	require.NoError(t, err)

	f.walk(t, d.SessionID, SelectionAuto, "")
	second, err := f.workflow.Confirm(f.ctx, d.SessionID, "")
	require.NoError(t, err)

	assert.Equal(t, "004", first.QueueNumber)
	assert.Equal(t, "005", second.QueueNumber)
	assert.Equal(t, first.Appointment.QueueNumber+1, second.Appointment.QueueNumber)
}

func TestConfirmFallsBackToTextReceipt(t *testing.T) {
	gen := receipt.NewGenerator(brokenRenderer{}, receipt.NewTextRenderer(), nil, logging.Nop())
	f := newFixture(t, stubAssigner{name: "Dr. Auto"}, gen)

	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	f.walk(t, d.SessionID, SelectionAuto, "")

	conf, err := f.workflow.Confirm(f.ctx, d.SessionID, "owner@example.com")
	require.NoError(t, err)
	assert.True(t, conf.Receipt.Fallback)
	assert.Equal(t, "text", conf.Receipt.Renderer)
	assert.Equal(t, "Booking_001.pdf", conf.Receipt.Filename)
	assert.Equal(t, "Dr. Auto", conf.Appointment.DoctorName)
	assert.Equal(t, appointment.StatusConfirmed, conf.Appointment.Status)
	assert.Equal(t, "owner@example.com", conf.Appointment.OwnerEmail)

	cached, err := f.workflow.Receipt(f.ctx, d.SessionID, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, conf.Receipt.Content, cached.Content)

	done, err := f.workflow.Finish(f.ctx, d.SessionID, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, "001", done.QueueNumber)
	assert.Equal(t, 5, done.RedirectAfterSeconds)

	fresh, err := f.workflow.Draft(f.ctx, d.SessionID, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, StepStart, fresh.Step)
	assert.Equal(t, "owner@example.com", fresh.Owner)
	assert.Empty(t, fresh.Department)
}

func TestConfirmWithoutReceiptStaysAtPatientStep(t *testing.T) {
	gen := receipt.NewGenerator(brokenRenderer{}, brokenRenderer{}, nil, logging.Nop())
	f := newFixture(t, stubAssigner{name: "Dr. Auto"}, gen)

	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	f.walk(t, d.SessionID, SelectionAuto, "")

	_, err = f.workflow.Confirm(f.ctx, d.SessionID, "")
	require.ErrorIs(t, err, receipt.ErrRenderFailed)

	cur, err := f.workflow.Draft(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, StepPatient, cur.Step)
	assert.Equal(t, orthopedics, cur.Department)

	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, appointment.StatusCancelled, f.ledger.entries[0].Status)

	_, err = f.workflow.Finish(f.ctx, d.SessionID, "")
	assert.ErrorIs(t, err, ErrStepOutOfOrder)
}

func TestConfirmManualKeepsChosenDoctor(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	f.walk(t, d.SessionID, SelectionManual, "Dr. Somchai")

	conf, err := f.workflow.Confirm(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Somchai", conf.Appointment.DoctorName)
	assert.Equal(t, "MANUAL", conf.Appointment.AppointmentType)
	assert.Equal(t, "somsri@example.com", conf.Appointment.OwnerEmail)
	assert.Equal(t, "Ms. Somsri Jaidee", conf.Appointment.PatientName)
	assert.False(t, f.mr.Exists(patientKey(d.SessionID)))
}

func TestConfirmAutoWithNoDoctorFree(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	f.walk(t, d.SessionID, SelectionAuto, "")

	_, err = f.workflow.Confirm(f.ctx, d.SessionID, "")
	require.ErrorIs(t, err, doctor.ErrNoDoctorAvailable)
	assert.Empty(t, f.ledger.entries)

	cur, err := f.workflow.Draft(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, StepPatient, cur.Step)
}

func TestBackKeepsCollectedFields(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	f.walk(t, d.SessionID, SelectionManual, "Dr. Somchai")

	back, err := f.workflow.Back(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, StepSchedule, back.Step)
	back, err = f.workflow.Back(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, StepDepartment, back.Step)

	assert.Equal(t, orthopedics, back.Department)
	assert.Equal(t, "Dr. Somchai", back.DoctorName)
	assert.Equal(t, "2025-09-23", back.Date)
	assert.Equal(t, "9:00-10:00", back.Time)
	assert.Equal(t, "knee pain", back.Illness)

	again, err := f.workflow.ChooseSchedule(f.ctx, d.SessionID, "", ScheduleInput{DoctorName: "Dr. Somchai", Date: "2025-09-24", Time: "10:00-11:00"})
	require.NoError(t, err)
	assert.Equal(t, "2025-09-24", again.Date)
	assert.Equal(t, orthopedics, again.Department)
}

func TestStepsOutOfOrder(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)

	_, err = f.workflow.ChooseSchedule(f.ctx, d.SessionID, "", ScheduleInput{Date: "2025-09-23", Time: "9:00-10:00"})
	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepSchedule, serr.Attempted)
	assert.Equal(t, StepDepartment, serr.Redirect)

	_, err = f.workflow.SubmitPatient(f.ctx, d.SessionID, "", validPatient())
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	_, err = f.workflow.Confirm(f.ctx, d.SessionID, "")
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	_, err = f.workflow.Finish(f.ctx, d.SessionID, "")
	assert.ErrorIs(t, err, ErrStepOutOfOrder)
}

func TestPatchedStepFieldsStillChecked(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)

	dept := orthopedics
	_, err = f.workflow.Patch(f.ctx, d.SessionID, "", Patch{Department: &dept})
	require.NoError(t, err)

	// Patching never advances the flow.
	_, err = f.workflow.ChooseSchedule(f.ctx, d.SessionID, "", ScheduleInput{Date: "2025-09-23", Time: "9:00-10:00"})
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	bad := SelectionType("SOMETIMES")
	_, err = f.workflow.Patch(f.ctx, d.SessionID, "", Patch{SelectionType: &bad})
	var verr validate.Errors
	assert.ErrorAs(t, err, &verr)
}

func TestScheduleRejectsPastDate(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	_, err = f.workflow.ChooseDepartment(f.ctx, d.SessionID, "", DepartmentInput{Department: orthopedics, SelectionType: SelectionAuto})
	require.NoError(t, err)

	_, err = f.workflow.ChooseSchedule(f.ctx, d.SessionID, "", ScheduleInput{Date: "2025-09-19", Time: "9:00-10:00"})
	var verr validate.Errors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must not be in the past", verr["date"])
}

func TestUnknownFieldsSurviveRewrite(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	require.NoError(t, f.mr.Set(draftKey("legacy"), `{"session_id":"legacy","department":"Cardiology","referral":{"code":"R-1"}}`))

	got, err := f.workflow.ChooseDepartment(f.ctx, "legacy", "", DepartmentInput{Department: orthopedics, SelectionType: SelectionAuto})
	require.NoError(t, err)
	assert.Equal(t, DraftVersion, got.Version)

	raw, err := f.mr.Get(draftKey("legacy"))
	require.NoError(t, err)
	var stored map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.JSONEq(t, `{"code":"R-1"}`, string(stored["referral"]))
	assert.JSONEq(t, `1`, string(stored["version"]))
}

func TestCorruptDraftStartsOver(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	require.NoError(t, f.mr.Set(draftKey("broken"), `{"department":`))

	d, err := f.workflow.Draft(f.ctx, "broken", "")
	require.NoError(t, err)
	assert.Equal(t, "broken", d.SessionID)
	assert.Equal(t, StepStart, d.Step)
	assert.Empty(t, d.Department)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)

	_, err := f.workflow.Draft(f.ctx, "nope", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.workflow.ChooseDepartment(f.ctx, "nope", "", DepartmentInput{Department: orthopedics, SelectionType: SelectionAuto})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentPatchesKeepEveryField(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)

	dept, illness := orthopedics, "back pain"
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.workflow.Patch(f.ctx, d.SessionID, "", Patch{Department: &dept})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := f.workflow.Patch(f.ctx, d.SessionID, "", Patch{Illness: &illness})
		assert.NoError(t, err)
	}()
	wg.Wait()

	got, err := f.workflow.Draft(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, orthopedics, got.Department)
	assert.Equal(t, "back pain", got.Illness)
}

func TestReset(t *testing.T) {
	f := newFixture(t, stubAssigner{}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	f.walk(t, d.SessionID, SelectionAuto, "")

	require.NoError(t, f.workflow.Reset(f.ctx, d.SessionID, ""))
	assert.False(t, f.mr.Exists(draftKey(d.SessionID)))
	assert.False(t, f.mr.Exists(patientKey(d.SessionID)))
}

func TestManualDoctorMustHoldTheSlot(t *testing.T) {
	f := newFixture(t, stubAssigner{roster: []string{"Dr. Somchai"}, taken: "10:00-11:00"}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	_, err = f.workflow.ChooseDepartment(f.ctx, d.SessionID, "", DepartmentInput{Department: orthopedics, SelectionType: SelectionManual})
	require.NoError(t, err)

	_, err = f.workflow.ChooseSchedule(f.ctx, d.SessionID, "", ScheduleInput{DoctorName: "Dr. Nobody", Date: "2025-09-23", Time: "9:00-10:00"})
	var verr validate.Errors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "doctor_name")

	_, err = f.workflow.ChooseSchedule(f.ctx, d.SessionID, "", ScheduleInput{DoctorName: "Dr. Somchai", Date: "2025-09-23", Time: "10:00-11:00"})
	require.ErrorIs(t, err, doctor.ErrNoDoctorAvailable)

	cur, err := f.workflow.Draft(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, StepDepartment, cur.Step)
	assert.Empty(t, cur.DoctorName)

	f.walk(t, d.SessionID, SelectionManual, "Dr. Somchai")

	// A name patched in after the schedule step is checked again on confirm.
	nobody := "Dr. Nobody"
	_, err = f.workflow.Patch(f.ctx, d.SessionID, "", Patch{DoctorName: &nobody})
	require.NoError(t, err)
	_, err = f.workflow.Confirm(f.ctx, d.SessionID, "")
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, f.ledger.entries)
}

type failingSaveStore struct {
	Store
	failOn Step
}

func (s *failingSaveStore) SaveDraft(ctx context.Context, d Draft) error {
	if d.Step == s.failOn {
		return errors.New("redis write failed")
	}
	return s.Store.SaveDraft(ctx, d)
}

func TestConfirmRollsBackWhenDraftNotSaved(t *testing.T) {
	f := newFixture(t, stubAssigner{name: "Dr. Auto"}, nil)
	d, err := f.workflow.Start(f.ctx, "")
	require.NoError(t, err)
	f.walk(t, d.SessionID, SelectionAuto, "")

	healthy := f.workflow.store
	f.workflow.store = &failingSaveStore{Store: healthy, failOn: StepConfirmed}

	_, err = f.workflow.Confirm(f.ctx, d.SessionID, "")
	require.Error(t, err)

	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, appointment.StatusCancelled, f.ledger.entries[0].Status)
	cur, err := f.workflow.Draft(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, StepPatient, cur.Step)
	assert.True(t, f.mr.Exists(patientKey(d.SessionID)))
	_, err = f.workflow.Receipt(f.ctx, d.SessionID, "")
	assert.ErrorIs(t, err, ErrReceiptNotFound)

	f.workflow.store = healthy
	conf, err := f.workflow.Confirm(f.ctx, d.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, conf.Appointment.Status)
	assert.False(t, f.mr.Exists(patientKey(d.SessionID)))
}

func TestSessionBoundToOwner(t *testing.T) {
	f := newFixture(t, stubAssigner{name: "Dr. Auto"}, nil)
	const owner, other = "owner@example.com", "other@example.com"

	d, err := f.workflow.Start(f.ctx, " Owner@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, owner, d.Owner)

	_, err = f.workflow.ChooseDepartment(f.ctx, d.SessionID, other, DepartmentInput{Department: orthopedics, SelectionType: SelectionAuto})
	require.ErrorIs(t, err, ErrNotSessionOwner)
	_, err = f.workflow.Draft(f.ctx, d.SessionID, other)
	require.ErrorIs(t, err, ErrNotSessionOwner)

	_, err = f.workflow.ChooseDepartment(f.ctx, d.SessionID, owner, DepartmentInput{Department: orthopedics, SelectionType: SelectionAuto})
	require.NoError(t, err)
	_, err = f.workflow.ChooseSchedule(f.ctx, d.SessionID, owner, ScheduleInput{Date: "2025-09-23", Time: "9:00-10:00"})
	require.NoError(t, err)
	_, err = f.workflow.SubmitPatient(f.ctx, d.SessionID, owner, validPatient())
	require.NoError(t, err)

	_, err = f.workflow.Confirm(f.ctx, d.SessionID, other)
	require.ErrorIs(t, err, ErrNotSessionOwner)
	assert.Empty(t, f.ledger.entries)

	conf, err := f.workflow.Confirm(f.ctx, d.SessionID, owner)
	require.NoError(t, err)
	assert.Equal(t, owner, conf.Appointment.OwnerEmail)

	_, err = f.workflow.Receipt(f.ctx, d.SessionID, other)
	assert.ErrorIs(t, err, ErrNotSessionOwner)
	_, err = f.workflow.Finish(f.ctx, d.SessionID, other)
	assert.ErrorIs(t, err, ErrNotSessionOwner)
	assert.ErrorIs(t, f.workflow.Reset(f.ctx, d.SessionID, other), ErrNotSessionOwner)

	_, err = f.workflow.Receipt(f.ctx, d.SessionID, owner)
	require.NoError(t, err)
	_, err = f.workflow.Finish(f.ctx, d.SessionID, owner)
	require.NoError(t, err)
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/doctor"
	"github.com/hackgods/clinic-booking/internal/receipt"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/validate"
)

var (
	ErrStepOutOfOrder   = errors.New("booking step out of order")
	ErrAlreadyConfirmed = errors.New("booking already confirmed")
	ErrNotSessionOwner  = errors.New("booking session belongs to another account")
)

// StepError rejects a step whose predecessors are incomplete.
type StepError struct {
	Attempted Step
	Redirect  Step
	Reason    string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: cannot run %q (%s), restart at %q", ErrStepOutOfOrder, e.Attempted, e.Reason, e.Redirect)
}

func (e *StepError) Unwrap() error { return ErrStepOutOfOrder }

func outOfOrder(attempted Step, reason string) error {
	return &StepError{Attempted: attempted, Redirect: StepDepartment, Reason: reason}
}

// Ledger records confirmed bookings.
type Ledger interface {
	Append(ctx context.Context, in appointment.NewEntry) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status appointment.Status) (*appointment.Appointment, error)
}

// DoctorAssigner picks a doctor for AUTO bookings and checks the doctor
// named in MANUAL ones.
type DoctorAssigner interface {
	Assign(ctx context.Context, department string, date time.Time, timeLabel string) (*doctor.Doctor, error)
	Check(ctx context.Context, department, doctorName string, date time.Time, timeLabel string) (*doctor.Doctor, error)
}

// ReceiptRenderer produces the downloadable confirmation.
type ReceiptRenderer interface {
	Render(ctx context.Context, r receipt.Receipt) (*receipt.Document, error)
}

// Observer receives step outcomes.
type Observer interface {
	ObserveStep(step, outcome string)
	ObserveConfirmed(selectionType string)
}

type Store interface {
	DraftStore
	PatientStore
	ReceiptStore
}

// Workflow drives one booking per session from department selection to
// the finish page. Every read-modify-write of a draft holds the session lock.
type Workflow struct {
	store         Store
	locker        redisclient.Locker
	ledger        Ledger
	assigner      DoctorAssigner
	renderer      ReceiptRenderer
	observer      Observer
	logger        zerolog.Logger
	redirectDelay time.Duration
	now           func() time.Time
}

func NewWorkflow(
	store Store,
	locker redisclient.Locker,
	ledger Ledger,
	assigner DoctorAssigner,
	renderer ReceiptRenderer,
	observer Observer,
	redirectDelay time.Duration,
	logger zerolog.Logger,
) *Workflow {
	return &Workflow{
		store:         store,
		locker:        locker,
		ledger:        ledger,
		assigner:      assigner,
		renderer:      renderer,
		observer:      observer,
		logger:        logger,
		redirectDelay: redirectDelay,
		now:           time.Now,
	}
}

func sessionLockName(sessionID string) string {
	return "booking:" + sessionID
}

func normalizeOwner(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkOwner rejects callers other than the account that started the
// session. Drafts without an owner are open to anyone.
func checkOwner(d Draft, owner string) error {
	if d.Owner != "" && d.Owner != normalizeOwner(owner) {
		return ErrNotSessionOwner
	}
	return nil
}

// claim is checkOwner for writes: an unowned draft is taken by the caller.
func claim(d *Draft, owner string) error {
	if err := checkOwner(*d, owner); err != nil {
		return err
	}
	if d.Owner == "" {
		d.Owner = normalizeOwner(owner)
	}
	return nil
}

// update loads the draft under the session lock, lets fn mutate it and saves
// the whole record back.
func (w *Workflow) update(ctx context.Context, sessionID, owner, step string, fn func(ctx context.Context, d *Draft) error) (*Draft, error) {
	var out Draft
	err := w.locker.WithLock(ctx, sessionLockName(sessionID), func(ctx context.Context) error {
		d, err := w.store.LoadDraft(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := claim(&d, owner); err != nil {
			return err
		}
		if err := fn(ctx, &d); err != nil {
			return err
		}
		d.UpdatedAt = w.now().UTC()
		if err := w.store.SaveDraft(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	w.observe(step, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflow) observe(step string, err error) {
	if w.observer == nil {
		return
	}
	outcome := "ok"
	var verr validate.Errors
	switch {
	case err == nil:
	case errors.Is(err, ErrStepOutOfOrder):
		outcome = "out_of_order"
	case errors.Is(err, ErrNotSessionOwner):
		outcome = "forbidden"
	case errors.As(err, &verr):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	w.observer.ObserveStep(step, outcome)
}

// Start opens a new session with an empty draft owned by owner.
func (w *Workflow) Start(ctx context.Context, owner string) (*Draft, error) {
	d := Draft{
		Version:   DraftVersion,
		SessionID: uuid.NewString(),
		Step:      StepStart,
		UpdatedAt: w.now().UTC(),
		Owner:     normalizeOwner(owner),
	}
	if err := w.store.SaveDraft(ctx, d); err != nil {
		w.observe("start", err)
		return nil, err
	}
	w.observe("start", nil)
	w.logger.Debug().Str("session_id", d.SessionID).Msg("booking session started")
	return &d, nil
}

func (w *Workflow) Draft(ctx context.Context, sessionID, owner string) (*Draft, error) {
	d, err := w.store.LoadDraft(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(d, owner); err != nil {
		return nil, err
	}
	return &d, nil
}

// Patch writes individual fields without advancing the flow.
func (w *Workflow) Patch(ctx context.Context, sessionID, owner string, p Patch) (*Draft, error) {
	return w.update(ctx, sessionID, owner, "patch", func(ctx context.Context, d *Draft) error {
		if d.Step.rank() >= StepConfirmed.rank() {
			return ErrAlreadyConfirmed
		}
		if p.SelectionType != nil && *p.SelectionType != "" && !p.SelectionType.Valid() {
			return validate.Errors{"selection_type": "must be AUTO or MANUAL"}
		}
		if p.Date != nil && *p.Date != "" {
			if _, err := time.Parse(availability.DateLayout, *p.Date); err != nil {
				return validate.Errors{"date": "must be YYYY-MM-DD"}
			}
		}
		d.apply(p)
		return nil
	})
}

// DepartmentInput is collected by the department step.
type DepartmentInput struct {
	Department    string        `json:"department"`
	SelectionType SelectionType `json:"selection_type"`
}

func (w *Workflow) ChooseDepartment(ctx context.Context, sessionID, owner string, in DepartmentInput) (*Draft, error) {
	return w.update(ctx, sessionID, owner, string(StepDepartment), func(ctx context.Context, d *Draft) error {
		if err := w.allow(d, StepDepartment); err != nil {
			return err
		}

		errs := validate.Errors{}
		errs.Required("department", in.Department)
		if !in.SelectionType.Valid() {
			errs.Add("selection_type", "must be AUTO or MANUAL")
		}
		if err := errs.Err(); err != nil {
			return err
		}

		d.Department = strings.TrimSpace(in.Department)
		d.SelectionType = in.SelectionType
		d.Step = StepDepartment
		return nil
	})
}

// ScheduleInput is collected by the schedule step. DoctorName is required
// for MANUAL bookings and must name an active doctor of the department with
// an open slot at Date/Time. Attachments are accepted but never stored.
type ScheduleInput struct {
	DoctorName  string   `json:"doctor_name"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Illness     string   `json:"illness"`
	Attachments []string `json:"attachments"`
}

func (w *Workflow) ChooseSchedule(ctx context.Context, sessionID, owner string, in ScheduleInput) (*Draft, error) {
	return w.update(ctx, sessionID, owner, string(StepSchedule), func(ctx context.Context, d *Draft) error {
		if err := w.allow(d, StepSchedule); err != nil {
			return err
		}

		errs := validate.Errors{}
		errs.Required("date", in.Date)
		errs.Required("time", in.Time)
		var day time.Time
		if in.Date != "" {
			var err error
			day, err = time.ParseInLocation(availability.DateLayout, in.Date, time.Local)
			if err != nil {
				errs.Add("date", "must be YYYY-MM-DD")
			} else if day.Before(startOfDay(w.now())) {
				errs.Add("date", "must not be in the past")
			}
		}
		if d.SelectionType == SelectionManual {
			errs.Required("doctor_name", in.DoctorName)
		}
		if err := errs.Err(); err != nil {
			return err
		}

		if d.SelectionType == SelectionManual {
			doc, err := w.assigner.Check(ctx, d.Department, in.DoctorName, day, in.Time)
			if err != nil {
				return err
			}
			d.DoctorName = doc.Name
		}
		d.Date = in.Date
		d.Time = in.Time
		d.Illness = strings.TrimSpace(in.Illness)
		d.Step = StepSchedule
		if len(in.Attachments) > 0 {
			w.logger.Debug().Int("count", len(in.Attachments)).Str("session_id", sessionID).Msg("attachments received, not stored")
		}
		return nil
	})
}

func (w *Workflow) SubmitPatient(ctx context.Context, sessionID, owner string, p PatientRecord) (*Draft, error) {
	return w.update(ctx, sessionID, owner, string(StepPatient), func(ctx context.Context, d *Draft) error {
		if err := w.allow(d, StepPatient); err != nil {
			return err
		}
		p.Email = strings.ToLower(strings.TrimSpace(p.Email))
		if err := p.Validate(); err != nil {
			return err
		}
		if err := w.store.PutPatient(ctx, sessionID, p); err != nil {
			return err
		}
		d.Step = StepPatient
		return nil
	})
}

// allow enforces that every step before target has been completed and that
// the fields it collected are present.
func (w *Workflow) allow(d *Draft, target Step) error {
	if d.Step.rank() >= StepConfirmed.rank() {
		return ErrAlreadyConfirmed
	}
	if d.Step.rank() < target.rank()-1 {
		return outOfOrder(target, fmt.Sprintf("draft is at %q", d.Step))
	}
	if target.rank() > StepDepartment.rank() {
		if d.Department == "" || !d.SelectionType.Valid() {
			return outOfOrder(target, "department not chosen")
		}
	}
	if target.rank() > StepSchedule.rank() {
		if d.Date == "" || d.Time == "" {
			return outOfOrder(target, "date and time not chosen")
		}
		if d.SelectionType == SelectionManual && d.DoctorName == "" {
			return outOfOrder(target, "doctor not chosen")
		}
	}
	return nil
}

// Confirmation is the outcome of a successful confirm step.
type Confirmation struct {
	Appointment *appointment.Appointment `json:"appointment"`
	QueueNumber string                   `json:"queue_number"`
	Receipt     *receipt.Document        `json:"receipt"`
}

// Confirm books the drafted appointment, renders its receipt and retires the
// draft. The booking is cancelled again when no receipt can be produced or
// the retired draft cannot be saved; the draft then stays at the patient
// step with its patient record. The record is dropped only once the retired
// draft is stored. Without ownerEmail the booking is owned by the session
// owner, or else by the patient's email.
func (w *Workflow) Confirm(ctx context.Context, sessionID, ownerEmail string) (*Confirmation, error) {
	var out *Confirmation
	err := w.locker.WithLock(ctx, sessionLockName(sessionID), func(ctx context.Context) error {
		d, err := w.store.LoadDraft(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := claim(&d, ownerEmail); err != nil {
			return err
		}
		if err := w.allow(&d, StepConfirmed); err != nil {
			return err
		}
		if d.Step != StepPatient {
			return outOfOrder(StepConfirmed, "patient details not submitted")
		}
		patient, err := w.store.GetPatient(ctx, sessionID)
		if err != nil {
			return err
		}
		if patient == nil {
			return outOfOrder(StepConfirmed, "patient details missing")
		}

		day, err := time.ParseInLocation(availability.DateLayout, d.Date, time.Local)
		if err != nil {
			return outOfOrder(StepConfirmed, "stored date is invalid")
		}
		var doc *doctor.Doctor
		if d.SelectionType == SelectionAuto {
			doc, err = w.assigner.Assign(ctx, d.Department, day, d.Time)
		} else {
			doc, err = w.assigner.Check(ctx, d.Department, d.DoctorName, day, d.Time)
		}
		if err != nil {
			return err
		}

		owner := d.Owner
		if owner == "" {
			owner = patient.Email
		}

		appt, err := w.ledger.Append(ctx, appointment.NewEntry{
			PatientName:     patient.FullName(),
			DoctorName:      doc.Name,
			Department:      d.Department,
			AppointmentType: string(d.SelectionType),
			Date:            d.Date,
			Time:            d.Time,
			Status:          appointment.StatusConfirmed,
			OwnerEmail:      owner,
		})
		if err != nil {
			return err
		}

		rdoc, err := w.renderer.Render(ctx, receipt.Receipt{
			QueueNumber:     appt.QueueNumber,
			PatientName:     appt.PatientName,
			CitizenID:       patient.CitizenID,
			Phone:           patient.Phone,
			Email:           patient.Email,
			Department:      appt.Department,
			DoctorName:      appt.DoctorName,
			AppointmentType: appt.AppointmentType,
			Date:            appt.Date,
			Time:            appt.Time,
			Illness:         d.Illness,
			IssuedAt:        w.now(),
		})
		if err == nil {
			err = w.store.PutReceipt(ctx, sessionID, rdoc)
		}
		if err != nil {
			w.revoke(ctx, appt, err)
			return err
		}

		retired := Draft{
			Version:       DraftVersion,
			SessionID:     d.SessionID,
			Step:          StepConfirmed,
			UpdatedAt:     w.now().UTC(),
			Owner:         d.Owner,
			AppointmentID: appt.ID,
			QueueNumber:   appt.QueueNumber,
			extra:         d.extra,
		}
		if err := w.store.SaveDraft(ctx, retired); err != nil {
			w.revoke(ctx, appt, err)
			if derr := w.store.DeleteReceipt(context.WithoutCancel(ctx), sessionID); derr != nil {
				w.logger.Warn().Err(derr).Str("session_id", sessionID).Msg("receipt of cancelled booking not removed")
			}
			return err
		}
		if err := w.store.DeletePatient(ctx, sessionID); err != nil {
			w.logger.Warn().Err(err).Str("session_id", sessionID).Msg("patient record not removed")
		}

		out = &Confirmation{
			Appointment: appt,
			QueueNumber: appt.QueueLabel(),
			Receipt:     rdoc,
		}
		return nil
	})
	w.observe(string(StepConfirmed), err)
	if err != nil {
		return nil, err
	}

	if w.observer != nil {
		w.observer.ObserveConfirmed(out.Appointment.AppointmentType)
	}
	w.logger.Info().
		Str("session_id", sessionID).
		Int64("appointment_id", out.Appointment.ID).
		Str("queue_number", out.QueueNumber).
		Str("renderer", out.Receipt.Renderer).
		Msg("booking confirmed")
	return out, nil
}

// revoke cancels a booking whose confirmation could not be completed.
func (w *Workflow) revoke(ctx context.Context, appt *appointment.Appointment, cause error) {
	w.logger.Error().Err(cause).Int64("appointment_id", appt.ID).Msg("confirmation incomplete, cancelling booking")
	if _, err := w.ledger.UpdateStatus(context.WithoutCancel(ctx), appt.ID, appointment.StatusCancelled); err != nil {
		w.logger.Error().Err(err).Int64("appointment_id", appt.ID).Msg("could not cancel incomplete booking")
	}
}

// Finished is returned by the finish step.
type Finished struct {
	QueueNumber          string `json:"queue_number"`
	RedirectAfterSeconds int    `json:"redirect_after_seconds"`
}

// Finish closes a confirmed booking and leaves the session with an empty
// draft, so the next booking starts clean. The receipt stays downloadable
// until it expires.
func (w *Workflow) Finish(ctx context.Context, sessionID, owner string) (*Finished, error) {
	var out *Finished
	err := w.locker.WithLock(ctx, sessionLockName(sessionID), func(ctx context.Context) error {
		d, err := w.store.LoadDraft(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := checkOwner(d, owner); err != nil {
			return err
		}
		if d.Step != StepConfirmed {
			return outOfOrder(StepFinished, "booking not confirmed")
		}
		fresh := Draft{
			Version:   DraftVersion,
			SessionID: sessionID,
			Step:      StepStart,
			UpdatedAt: w.now().UTC(),
			Owner:     d.Owner,
			extra:     d.extra,
		}
		if err := w.store.SaveDraft(ctx, fresh); err != nil {
			return err
		}
		out = &Finished{
			QueueNumber:          receipt.FormatQueueNumber(d.QueueNumber),
			RedirectAfterSeconds: int(w.redirectDelay / time.Second),
		}
		return nil
	})
	w.observe(string(StepFinished), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Back moves the draft one step back. No collected field is cleared.
func (w *Workflow) Back(ctx context.Context, sessionID, owner string) (*Draft, error) {
	return w.update(ctx, sessionID, owner, "back", func(ctx context.Context, d *Draft) error {
		if d.Step.rank() >= StepConfirmed.rank() {
			return ErrAlreadyConfirmed
		}
		d.Step = d.Step.previous()
		return nil
	})
}

// Reset discards the draft and patient record of the session.
func (w *Workflow) Reset(ctx context.Context, sessionID, owner string) error {
	err := w.locker.WithLock(ctx, sessionLockName(sessionID), func(ctx context.Context) error {
		d, err := w.store.LoadDraft(ctx, sessionID)
		switch {
		case errors.Is(err, ErrSessionNotFound):
		case err != nil:
			return err
		default:
			if err := checkOwner(d, owner); err != nil {
				return err
			}
		}
		return w.store.DeleteDraft(ctx, sessionID)
	})
	w.observe("reset", err)
	return err
}

// Receipt returns the cached receipt. It is only handed to the session
// owner, so the session must still exist.
func (w *Workflow) Receipt(ctx context.Context, sessionID, owner string) (*receipt.Document, error) {
	d, err := w.store.LoadDraft(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(d, owner); err != nil {
		return nil, err
	}
	return w.store.GetReceipt(ctx, sessionID)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

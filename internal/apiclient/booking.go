package apiclient

import (
	"context"
	"net/http"

	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/receipt"
)

// DraftState is the server's view of a booking session after a step.
type DraftState struct {
	SessionID string        `json:"session_id"`
	Step      booking.Step  `json:"step"`
	Next      booking.Step  `json:"next"`
	Draft     booking.Draft `json:"draft"`
}

type Confirmation struct {
	QueueNumber string            `json:"queue_number"`
	ReceiptURL  string            `json:"receipt_url"`
	Receipt     *receipt.Document `json:"receipt"`
	Appointment struct {
		ID         int64  `json:"id"`
		DoctorName string `json:"doctor_name"`
		Status     string `json:"status"`
	} `json:"appointment"`
}

// Session is one booking walkthrough bound to a server-side draft.
type Session struct {
	client *Client
	ID     string
}

func (c *Client) StartBooking(ctx context.Context) (*Session, error) {
	var st DraftState
	if err := c.do(ctx, http.MethodPost, "/booking/start", "", nil, &st); err != nil {
		return nil, err
	}
	return &Session{client: c, ID: st.SessionID}, nil
}

// Resume binds to an existing session id.
func (c *Client) Resume(sessionID string) *Session {
	return &Session{client: c, ID: sessionID}
}

func (s *Session) step(ctx context.Context, method, path string, body any) (*DraftState, error) {
	var st DraftState
	if err := s.client.do(ctx, method, path, s.ID, body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Session) Draft(ctx context.Context) (*DraftState, error) {
	return s.step(ctx, http.MethodGet, "/booking/draft", nil)
}

func (s *Session) Patch(ctx context.Context, p booking.Patch) (*DraftState, error) {
	return s.step(ctx, http.MethodPatch, "/booking/draft", p)
}

func (s *Session) ChooseDepartment(ctx context.Context, in booking.DepartmentInput) (*DraftState, error) {
	return s.step(ctx, http.MethodPost, "/booking/department", in)
}

func (s *Session) ChooseSchedule(ctx context.Context, in booking.ScheduleInput) (*DraftState, error) {
	return s.step(ctx, http.MethodPost, "/booking/schedule", in)
}

func (s *Session) SubmitPatient(ctx context.Context, p booking.PatientRecord) (*DraftState, error) {
	return s.step(ctx, http.MethodPost, "/booking/patient", p)
}

func (s *Session) Back(ctx context.Context) (*DraftState, error) {
	return s.step(ctx, http.MethodPost, "/booking/back", nil)
}

func (s *Session) Confirm(ctx context.Context) (*Confirmation, error) {
	var out Confirmation
	if err := s.client.do(ctx, http.MethodPost, "/booking/confirm", s.ID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) Finish(ctx context.Context) (*booking.Finished, error) {
	var out booking.Finished
	if err := s.client.do(ctx, http.MethodPost, "/booking/finish", s.ID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) Reset(ctx context.Context) error {
	return s.client.do(ctx, http.MethodPost, "/booking/reset", s.ID, nil, nil)
}

// Receipt downloads the PDF of the last confirmation.
func (s *Session) Receipt(ctx context.Context) ([]byte, error) {
	var pdf []byte
	if err := s.client.do(ctx, http.MethodGet, "/booking/receipt", s.ID, nil, &pdf); err != nil {
		return nil, err
	}
	return pdf, nil
}

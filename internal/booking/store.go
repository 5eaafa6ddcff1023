package booking

import (
	"context"
	"errors"

	"github.com/hackgods/clinic-booking/internal/receipt"
)

var (
	ErrSessionNotFound = errors.New("booking session not found or expired")
	ErrReceiptNotFound = errors.New("no receipt for this session")
)

// DraftStore persists one draft per session.
type DraftStore interface {
	LoadDraft(ctx context.Context, sessionID string) (Draft, error)
	SaveDraft(ctx context.Context, d Draft) error
	DeleteDraft(ctx context.Context, sessionID string) error
}

// PatientStore holds the patient record between the patient and confirm steps.
type PatientStore interface {
	PutPatient(ctx context.Context, sessionID string, p PatientRecord) error
	GetPatient(ctx context.Context, sessionID string) (*PatientRecord, error)
	DeletePatient(ctx context.Context, sessionID string) error
}

// ReceiptStore keeps the rendered receipt downloadable for a while.
type ReceiptStore interface {
	PutReceipt(ctx context.Context, sessionID string, doc *receipt.Document) error
	GetReceipt(ctx context.Context, sessionID string) (*receipt.Document, error)
	DeleteReceipt(ctx context.Context, sessionID string) error
}

// Package receipt renders booking confirmations as PDF documents.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var ErrRenderFailed = errors.New("receipt could not be rendered")

// Receipt holds everything printed on a booking confirmation.
type Receipt struct {
	QueueNumber     int64
	PatientName     string
	CitizenID       string
	Phone           string
	Email           string
	Department      string
	DoctorName      string
	AppointmentType string
	Date            string
	Time            string
	Illness         string
	IssuedAt        time.Time
}

// Field is one labelled line of a receipt.
type Field struct {
	Label string
	Value string
}

// Fields lists the receipt content in its fixed print order.
func (r Receipt) Fields() []Field {
	return []Field{
		{"Queue number", FormatQueueNumber(r.QueueNumber)},
		{"Patient", r.PatientName},
		{"Citizen ID", maskCitizenID(r.CitizenID)},
		{"Phone", r.Phone},
		{"Email", r.Email},
		{"Department", r.Department},
		{"Doctor", r.DoctorName},
		{"Appointment type", r.AppointmentType},
		{"Date", r.Date},
		{"Time", r.Time},
		{"Symptoms", r.Illness},
		{"Issued at", r.IssuedAt.Format("2006-01-02 15:04")},
	}
}

func maskCitizenID(id string) string {
	if len(id) <= 4 {
		return id
	}
	masked := make([]byte, len(id))
	for i := range masked {
		if i < len(id)-4 {
			masked[i] = 'x'
		} else {
			masked[i] = id[i]
		}
	}
	return string(masked)
}

// Renderer turns a receipt into a document body.
type Renderer interface {
	Name() string
	Render(ctx context.Context, r Receipt) ([]byte, error)
}

// Document is a rendered receipt ready for download.
type Document struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Renderer    string `json:"renderer"`
	Fallback    bool   `json:"fallback"`
	Content     []byte `json:"-"`
}

// Observer is notified of every render attempt.
type Observer interface {
	ObserveReceipt(renderer, outcome string)
}

// Generator renders with the primary renderer and, only after it fails,
// with the fallback.
type Generator struct {
	primary  Renderer
	fallback Renderer
	observer Observer
	logger   zerolog.Logger
}

func NewGenerator(primary, fallback Renderer, observer Observer, logger zerolog.Logger) *Generator {
	return &Generator{
		primary:  primary,
		fallback: fallback,
		observer: observer,
		logger:   logger,
	}
}

func (g *Generator) Render(ctx context.Context, r Receipt) (*Document, error) {
	content, err := g.attempt(ctx, g.primary, r)
	if err == nil {
		return g.document(r, g.primary, content, false), nil
	}
	primaryErr := err

	g.logger.Warn().Err(err).
		Str("queue_number", FormatQueueNumber(r.QueueNumber)).
		Msg("visual receipt failed, falling back to text receipt")

	if g.fallback == nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, primaryErr)
	}

	content, err = g.attempt(ctx, g.fallback, r)
	if err != nil {
		return nil, fmt.Errorf("%w: primary: %v; fallback: %v", ErrRenderFailed, primaryErr, err)
	}
	return g.document(r, g.fallback, content, true), nil
}

func (g *Generator) attempt(ctx context.Context, renderer Renderer, r Receipt) (content []byte, err error) {
	if renderer == nil {
		return nil, errors.New("no renderer configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s renderer panicked: %v", renderer.Name(), p)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		if g.observer != nil {
			g.observer.ObserveReceipt(renderer.Name(), outcome)
		}
	}()

	return renderer.Render(ctx, r)
}

func (g *Generator) document(r Receipt, renderer Renderer, content []byte, fallback bool) *Document {
	return &Document{
		Filename:    Filename(r.QueueNumber),
		ContentType: "application/pdf",
		Renderer:    renderer.Name(),
		Fallback:    fallback,
		Content:     content,
	}
}

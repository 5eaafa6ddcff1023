package receipt

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/logging"
)

func sampleReceipt() Receipt {
	return Receipt{
		QueueNumber:     4,
		PatientName:     "นาย สมชาย ใจดี",
		CitizenID:       "1234567890123",
		Phone:           "0812345678",
		Email:           "somchai@example.com",
		Department:      "กระดูกและข้อ",
		DoctorName:      "Dr. Anan",
		AppointmentType: "AUTO",
		Date:            "2025-09-23",
		Time:            "9:00-10:00",
		Illness:         "knee pain",
		IssuedAt:        time.Date(2025, 9, 20, 10, 30, 0, 0, time.UTC),
	}
}

func TestFormatQueueNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "000"},
		{1, "001"},
		{42, "042"},
		{123, "123"},
		{999, "999"},
		{1000, "1000"},
		{12345, "12345"},
		{-3, "000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatQueueNumber(tt.n))
	}
	assert.Equal(t, "Booking_042.pdf", Filename(42))
}

func TestFieldsFixedOrder(t *testing.T) {
	var labels []string
	for _, f := range sampleReceipt().Fields() {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{
		"Queue number", "Patient", "Citizen ID", "Phone", "Email", "Department",
		"Doctor", "Appointment type", "Date", "Time", "Symptoms", "Issued at",
	}, labels)
}

func TestLines(t *testing.T) {
	lines := Lines(sampleReceipt())
	require.Len(t, lines, 13)
	assert.Equal(t, "BOOKING CONFIRMATION", lines[0])
	assert.Equal(t, "Queue number: 004", lines[1])
	assert.Equal(t, "Citizen ID: xxxxxxxxx0123", lines[3])
	assert.Equal(t, "Issued at: 2025-09-20 10:30", lines[12])
}

func TestTextRendererProducesPDF(t *testing.T) {
	out, err := NewTextRenderer().Render(context.Background(), sampleReceipt())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

// pageText inflates every FlateDecode stream in a PDF and joins them.
func pageText(t *testing.T, pdf []byte) []byte {
	t.Helper()
	var out []byte
	rest := pdf
	for {
		start := bytes.Index(rest, []byte(">>\nstream\n"))
		if start < 0 {
			return out
		}
		rest = rest[start+len(">>\nstream\n"):]
		end := bytes.Index(rest, []byte("\nendstream"))
		require.GreaterOrEqual(t, end, 0, "unterminated stream")
		if zr, err := zlib.NewReader(bytes.NewReader(rest[:end])); err == nil {
			if b, err := io.ReadAll(zr); err == nil {
				out = append(out, b...)
			}
		}
		rest = rest[end:]
	}
}

func utf16be(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u>>8), byte(u))
	}
	return b
}

func TestRenderersKeepThaiValues(t *testing.T) {
	renderers := []Renderer{NewVisualRenderer(DefaultFont()), NewTextRenderer()}
	for _, r := range renderers {
		t.Run(r.Name(), func(t *testing.T) {
			out, err := r.Render(context.Background(), sampleReceipt())
			require.NoError(t, err)
			require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

			text := pageText(t, out)
			assert.True(t, bytes.Contains(text, utf16be("กระดูกและข้อ")), "department lost")
			assert.True(t, bytes.Contains(text, utf16be("สมชาย")), "patient name lost")
			assert.True(t, bytes.Contains(text, utf16be("knee pain")))
		})
	}
}

func TestVisualRendererMissingFont(t *testing.T) {
	_, err := NewVisualRenderer(nil).Render(context.Background(), sampleReceipt())
	assert.Error(t, err)
}

func TestLoadFont(t *testing.T) {
	b, err := LoadFont("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFont(), b)

	_, err = LoadFont(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "face.ttf")
	require.NoError(t, os.WriteFile(path, DefaultFont(), 0o600))
	b, err = LoadFont(path)
	require.NoError(t, err)
	assert.Len(t, b, len(DefaultFont()))
}

type stubRenderer struct {
	name  string
	err   error
	panic bool
	calls int
}

func (s *stubRenderer) Name() string { return s.name }

func (s *stubRenderer) Render(ctx context.Context, r Receipt) ([]byte, error) {
	s.calls++
	if s.panic {
		panic("canvas exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.name), nil
}

type countingObserver map[string]int

func (c countingObserver) ObserveReceipt(renderer, outcome string) {
	c[renderer+":"+outcome]++
}

func TestGeneratorPrimarySucceeds(t *testing.T) {
	primary := &stubRenderer{name: "visual"}
	fallback := &stubRenderer{name: "text"}
	obs := countingObserver{}
	g := NewGenerator(primary, fallback, obs, logging.Nop())

	doc, err := g.Render(context.Background(), sampleReceipt())
	require.NoError(t, err)
	assert.Equal(t, "Booking_004.pdf", doc.Filename)
	assert.Equal(t, "visual", doc.Renderer)
	assert.False(t, doc.Fallback)
	assert.Equal(t, 0, fallback.calls)
	assert.Equal(t, 1, obs["visual:ok"])
}

func TestGeneratorFallsBack(t *testing.T) {
	primary := &stubRenderer{name: "visual", err: errors.New("no font")}
	fallback := &stubRenderer{name: "text"}
	obs := countingObserver{}
	g := NewGenerator(primary, fallback, obs, logging.Nop())

	doc, err := g.Render(context.Background(), sampleReceipt())
	require.NoError(t, err)
	assert.True(t, doc.Fallback)
	assert.Equal(t, []byte("text"), doc.Content)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, 1, obs["visual:error"])
	assert.Equal(t, 1, obs["text:ok"])
}

func TestGeneratorRecoversPanic(t *testing.T) {
	primary := &stubRenderer{name: "visual", panic: true}
	g := NewGenerator(primary, &stubRenderer{name: "text"}, nil, logging.Nop())

	doc, err := g.Render(context.Background(), sampleReceipt())
	require.NoError(t, err)
	assert.True(t, doc.Fallback)
}

func TestGeneratorBothFail(t *testing.T) {
	g := NewGenerator(
		&stubRenderer{name: "visual", err: errors.New("no font")},
		&stubRenderer{name: "text", err: errors.New("disk full")},
		nil, logging.Nop())

	_, err := g.Render(context.Background(), sampleReceipt())
	assert.ErrorIs(t, err, ErrRenderFailed)
}

func TestGeneratorRealRenderersFallBack(t *testing.T) {
	g := NewGenerator(NewVisualRenderer(nil), NewTextRenderer(), nil, logging.Nop())

	doc, err := g.Render(context.Background(), sampleReceipt())
	require.NoError(t, err)
	assert.Equal(t, "text", doc.Renderer)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
}

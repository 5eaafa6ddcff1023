package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/receipt"
)

func draftKey(sessionID string) string   { return "booking:draft:" + sessionID }
func patientKey(sessionID string) string { return "booking:patient:" + sessionID }
func receiptKey(sessionID string) string { return "booking:receipt:" + sessionID }

// RedisStore keeps drafts, patient records and receipts in Redis, each with
// its own expiry.
type RedisStore struct {
	client     *redis.Client
	draftTTL   time.Duration
	receiptTTL time.Duration
	logger     zerolog.Logger
}

func NewRedisStore(client *redis.Client, draftTTL, receiptTTL time.Duration, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client:     client,
		draftTTL:   draftTTL,
		receiptTTL: receiptTTL,
		logger:     logger,
	}
}

// LoadDraft returns ErrSessionNotFound for unknown sessions. A record that
// cannot be decoded is logged and replaced by an empty draft.
func (s *RedisStore) LoadDraft(ctx context.Context, sessionID string) (Draft, error) {
	raw, err := s.client.Get(ctx, draftKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, ErrSessionNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("load draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("corrupt booking draft, starting over")
		d = Draft{}
	}
	d.normalize(sessionID)
	return d, nil
}

func (s *RedisStore) SaveDraft(ctx context.Context, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(d.SessionID), raw, s.draftTTL).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteDraft(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, draftKey(sessionID), patientKey(sessionID)).Err()
}

func (s *RedisStore) PutPatient(ctx context.Context, sessionID string, p PatientRecord) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode patient: %w", err)
	}
	return s.client.Set(ctx, patientKey(sessionID), raw, s.draftTTL).Err()
}

// GetPatient returns nil without error when no record was submitted.
func (s *RedisStore) GetPatient(ctx context.Context, sessionID string) (*PatientRecord, error) {
	raw, err := s.client.Get(ctx, patientKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	var p PatientRecord
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("corrupt patient record dropped")
		return nil, nil
	}
	return &p, nil
}

func (s *RedisStore) DeletePatient(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, patientKey(sessionID)).Err()
}

type storedReceipt struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Renderer    string `json:"renderer"`
	Fallback    bool   `json:"fallback"`
	Content     []byte `json:"content"`
}

func (s *RedisStore) PutReceipt(ctx context.Context, sessionID string, doc *receipt.Document) error {
	raw, err := json.Marshal(storedReceipt{
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Renderer:    doc.Renderer,
		Fallback:    doc.Fallback,
		Content:     doc.Content,
	})
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	return s.client.Set(ctx, receiptKey(sessionID), raw, s.receiptTTL).Err()
}

func (s *RedisStore) GetReceipt(ctx context.Context, sessionID string) (*receipt.Document, error) {
	raw, err := s.client.Get(ctx, receiptKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load receipt: %w", err)
	}

	var sr storedReceipt
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &receipt.Document{
		Filename:    sr.Filename,
		ContentType: sr.ContentType,
		Renderer:    sr.Renderer,
		Fallback:    sr.Fallback,
		Content:     sr.Content,
	}, nil
}

func (s *RedisStore) DeleteReceipt(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, receiptKey(sessionID)).Err()
}

// Package apiclient talks to the clinic booking API over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/doctor"
)

const sessionHeader = "X-Booking-Session"

// ErrHTMLResponse means the server answered with a web page instead of JSON,
// which points at a wrong base URL or a proxy in the way.
var ErrHTMLResponse = errors.New("server returned HTML instead of JSON, check the API base URL")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status   int
	Code     string            `json:"error"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields"`
	Redirect string            `json:"redirect"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path, sessionID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if isHTML(resp, raw) {
		return fmt.Errorf("%s %s (status %d): %w", method, path, resp.StatusCode, ErrHTMLResponse)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if b, ok := out.(*[]byte); ok {
		*b = raw
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func isHTML(resp *http.Response, raw []byte) bool {
	if strings.HasPrefix(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(raw))
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html"))
}

// Auth

func (c *Client) Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error) {
	var sess auth.Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", in, &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.Token)
	return &sess, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	var sess auth.Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", auth.LoginInput{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.Token)
	return &sess, nil
}

// Catalog

func (c *Client) Specialties(ctx context.Context) ([]doctor.Specialty, error) {
	var out []doctor.Specialty
	err := c.do(ctx, http.MethodGet, "/specialties", "", nil, &out)
	return out, err
}

func (c *Client) Doctors(ctx context.Context, crit doctor.Criteria) ([]doctor.Doctor, error) {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("q", crit.Query)
	set("gender", string(crit.Gender))
	set("department", crit.Department)
	set("time", crit.TimeSlot)
	set("date", crit.Date)
	if crit.AvailableOnly {
		q.Set("available", "true")
	}

	path := "/doctors"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []doctor.Doctor
	err := c.do(ctx, http.MethodGet, path, "", nil, &out)
	return out, err
}

func (c *Client) Availability(ctx context.Context, doctorID int64, from time.Time) ([]availability.DaySchedule, error) {
	var out struct {
		Days []availability.DaySchedule `json:"days"`
	}
	path := "/doctors/" + strconv.FormatInt(doctorID, 10) + "/availability?from=" + from.Format(availability.DateLayout)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Days, nil
}

// History

func (c *Client) History(ctx context.Context) ([]appointment.Appointment, error) {
	var out []appointment.Appointment
	err := c.do(ctx, http.MethodGet, "/history", "", nil, &out)
	return out, err
}

func (c *Client) UpdateHistoryStatus(ctx context.Context, id int64, status appointment.Status) (*appointment.Appointment, error) {
	var out appointment.Appointment
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPatch, "/history/"+strconv.FormatInt(id, 10)+"/status", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

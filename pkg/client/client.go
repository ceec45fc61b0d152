package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/roster/internal/logging"
	"github.com/naveenspark/roster/pkg/domain"
	"github.com/naveenspark/roster/pkg/session"
)

// DefaultTimeout bounds every request so a hung call surfaces as a TransportError.
const DefaultTimeout = 30 * time.Second

// Client is the roster API client.
type Client struct {
	baseURL    string
	session    *session.Session
	httpClient *http.Client
	log        *slog.Logger
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. nil is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy, so a
// client passed to WithHTTPClient is left as the caller configured it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a new API client. The session supplies the bearer token on
// every request and receives it on sign-in.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sess,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log:       logging.Nop(),
		userAgent: "roster",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client reads its token from.
func (c *Client) Session() *session.Session {
	return c.session
}

// Origin returns scheme://host of the API, used to resolve uploaded file paths.
func (c *Client) Origin() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return c.baseURL
	}
	return u.Scheme + "://" + u.Host
}

// Companies returns the company resource.
func (c *Client) Companies() *Resource[domain.Company, domain.CompanyDraft] {
	return &Resource[domain.Company, domain.CompanyDraft]{c: c, path: "/company", one: "Company", many: "Companies"}
}

// Employees returns the employee resource.
func (c *Client) Employees() *Resource[domain.Employee, domain.EmployeeDraft] {
	return &Resource[domain.Employee, domain.EmployeeDraft]{c: c, path: "/employee", one: "Employee", many: "Employees"}
}

// envelope is the outer shape of every API response.
type envelope struct {
	Status  json.RawMessage `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    struct {
		Pagination *domain.Pagination `json:"pagination,omitempty"`
		Token      string             `json:"token,omitempty"`
	} `json:"meta"`
	Errors map[string]json.RawMessage `json:"errors,omitempty"`
}

// form is a multipart request body.
type form struct {
	fields    []domain.Field
	fileField string
	file      *domain.File
}

func draftForm(d domain.Draft) *form {
	name, file := d.Attachment()
	return &form{fields: d.FormFields(), fileField: name, file: file}
}

func (f *form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if err := w.WriteField(fld.Name, fld.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", fld.Name, err)
		}
	}
	if f.file != nil {
		part, err := w.CreateFormFile(f.fileField, f.file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(f.file.Data); err != nil {
			return nil, "", fmt.Errorf("write file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body *form, out *envelope) error {
	var (
		reqBody     io.Reader
		contentType string
	)
	if body != nil {
		var err error
		reqBody, contentType, err = body.encode()
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.session != nil {
		if tok, ok := c.session.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("api request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close
	c.log.Debug("api request", "method", method, "path", path, "status", resp.StatusCode,
		"duration", time.Since(start), "request_id", reqID)

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
		var env envelope
		if json.Unmarshal(respBody, &env) == nil {
			httpErr.Message = env.Message
			if httpErr.Message == "" {
				httpErr.Message = env.Error
			}
			httpErr.Fields = fieldErrors(env.Errors)
		}
		c.log.Warn("api request rejected", "method", method, "path", path, "status", resp.StatusCode,
			"message", httpErr.Message, "request_id", reqID)
		return httpErr
	}

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &TransportError{Op: method + " " + path, Err: err}
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// fieldErrors keeps the first message per field. Values may be a string or
// a list of strings.
func fieldErrors(raw map[string]json.RawMessage) domain.FieldErrors {
	if len(raw) == 0 {
		return nil
	}
	fe := domain.FieldErrors{}
	for field, v := range raw {
		var list []string
		if json.Unmarshal(v, &list) == nil {
			if len(list) > 0 {
				fe[field] = list[0]
			}
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			fe[field] = s
		}
	}
	return fe
}

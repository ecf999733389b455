package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Service defines the full remote capability surface. It is implemented
// by *Client and can be substituted for testing.
type Service interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, surname, password string) error
	Login(ctx context.Context, surname, password string) (*LoginReply, error)
	SubmitRecord(ctx context.Context, token string, record ScanRecord) (*SubmitReply, error)
	FetchHistory(ctx context.Context, token string) ([]TrackRecord, error)
	ClearHistory(ctx context.Context, token string) error
	FetchErrors(ctx context.Context, token string) ([]ErrorRecord, error)
	ClearErrors(ctx context.Context, token string) error
	DeleteError(ctx context.Context, token string, id int64) error
	AdminLogin(ctx context.Context, password string) (string, error)
	PendingUsers(ctx context.Context, token string) ([]PendingUser, error)
	ApprovePending(ctx context.Context, token string, id int64, role Role) error
	RejectPending(ctx context.Context, token string, id int64) error
	Users(ctx context.Context, token string) ([]ManagedUser, error)
	UpdateUser(ctx context.Context, token string, id int64, patch UserPatch) (*ManagedUser, error)
	DeleteUser(ctx context.Context, token string, id int64) error
	RolePasswords(ctx context.Context, token string) (map[Role]string, error)
	SetRolePassword(ctx context.Context, token string, role Role, password string) error
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Client talks to the tracking HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultUserAgent = "trackbox/0.1"

	pingTimeout = 5 * time.Second
	dataTimeout = 10 * time.Second
	authTimeout = 15 * time.Second
)

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}, nil
}

// Ping probes remote reachability with a cheap HEAD request. Any response
// below the server-error class counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: "/"})
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	}
	return nil
}

// Register submits a registration request for approval.
func (c *Client) Register(ctx context.Context, surname, password string) error {
	body := map[string]string{"surname": surname, "password": password}
	return c.do(ctx, http.MethodPost, "/register", "", body, nil, authTimeout)
}

// Login exchanges operator credentials for a bearer token.
func (c *Client) Login(ctx context.Context, surname, password string) (*LoginReply, error) {
	body := map[string]string{"surname": surname, "password": password}
	var reply LoginReply
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &reply, authTimeout); err != nil {
		return nil, err
	}
	if reply.Token == "" {
		return nil, &Error{Status: http.StatusInternalServerError, Message: "server returned no access token"}
	}
	return &reply, nil
}

// SubmitRecord posts one scan record. The reply note is set when the
// server already holds an identical record.
func (c *Client) SubmitRecord(ctx context.Context, token string, record ScanRecord) (*SubmitReply, error) {
	var reply SubmitReply
	if err := c.do(ctx, http.MethodPost, "/add_record", token, record, &reply, dataTimeout); err != nil {
		return nil, err
	}
	return &reply, nil
}

// FetchHistory retrieves all tracked scan records.
func (c *Client) FetchHistory(ctx context.Context, token string) ([]TrackRecord, error) {
	var records []TrackRecord
	if err := c.do(ctx, http.MethodGet, "/get_history", token, nil, &records, dataTimeout); err != nil {
		return nil, err
	}
	return records, nil
}

// ClearHistory removes all tracked scan records.
func (c *Client) ClearHistory(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/clear_tracking", token, nil, nil, dataTimeout)
}

// FetchErrors retrieves the error log.
func (c *Client) FetchErrors(ctx context.Context, token string) ([]ErrorRecord, error) {
	var records []ErrorRecord
	if err := c.do(ctx, http.MethodGet, "/get_errors", token, nil, &records, dataTimeout); err != nil {
		return nil, err
	}
	return records, nil
}

// ClearErrors removes all error log entries.
func (c *Client) ClearErrors(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/clear_errors", token, nil, nil, dataTimeout)
}

// DeleteError removes a single error log entry.
func (c *Client) DeleteError(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/delete_error/"+strconv.FormatInt(id, 10), token, nil, nil, dataTimeout)
}

// AdminLogin exchanges the admin password for an admin bearer token.
func (c *Client) AdminLogin(ctx context.Context, password string) (string, error) {
	body := map[string]string{"password": password}
	var reply struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin_login", "", body, &reply, authTimeout); err != nil {
		return "", err
	}
	if reply.Token == "" {
		return "", &Error{Status: http.StatusInternalServerError, Message: "server returned no access token"}
	}
	return reply.Token, nil
}

// PendingUsers lists registration requests awaiting review.
func (c *Client) PendingUsers(ctx context.Context, token string) ([]PendingUser, error) {
	var users []PendingUser
	if err := c.do(ctx, http.MethodGet, "/admin/registration_requests", token, nil, &users, dataTimeout); err != nil {
		return nil, err
	}
	return users, nil
}

// ApprovePending approves a registration request with the given role.
func (c *Client) ApprovePending(ctx context.Context, token string, id int64, role Role) error {
	path := fmt.Sprintf("/admin/registration_requests/%d/approve", id)
	return c.do(ctx, http.MethodPost, path, token, map[string]string{"role": string(role)}, nil, dataTimeout)
}

// RejectPending rejects a registration request.
func (c *Client) RejectPending(ctx context.Context, token string, id int64) error {
	path := fmt.Sprintf("/admin/registration_requests/%d/reject", id)
	return c.do(ctx, http.MethodPost, path, token, nil, nil, dataTimeout)
}

// Users lists all managed accounts.
func (c *Client) Users(ctx context.Context, token string) ([]ManagedUser, error) {
	var users []ManagedUser
	if err := c.do(ctx, http.MethodGet, "/admin/users", token, nil, &users, dataTimeout); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser patches a managed account. At least one patch field must be set.
func (c *Client) UpdateUser(ctx context.Context, token string, id int64, patch UserPatch) (*ManagedUser, error) {
	if patch.Role == nil && patch.IsActive == nil {
		return nil, &Error{Status: http.StatusBadRequest, Message: "nothing to update"}
	}
	var user ManagedUser
	path := "/admin/users/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPatch, path, token, patch, &user, dataTimeout); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a managed account.
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+strconv.FormatInt(id, 10), token, nil, nil, dataTimeout)
}

// RolePasswords retrieves the shared passwords per role.
func (c *Client) RolePasswords(ctx context.Context, token string) (map[Role]string, error) {
	var raw map[string]*string
	if err := c.do(ctx, http.MethodGet, "/admin/role-passwords", token, nil, &raw, dataTimeout); err != nil {
		return nil, err
	}
	passwords := make(map[Role]string, len(raw))
	for key, value := range raw {
		role := RoleFromValue(key, nil)
		if value != nil {
			passwords[role] = *value
		} else {
			passwords[role] = ""
		}
	}
	return passwords, nil
}

// SetRolePassword replaces the shared password for a role.
func (c *Client) SetRolePassword(ctx context.Context, token string, role Role, password string) error {
	path := "/admin/role-passwords/" + string(role)
	return c.do(ctx, http.MethodPost, path, token, map[string]string{"password": password}, nil, dataTimeout)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, dest any, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: extractMessage(raw, resp.StatusCode)}
	}
	if dest == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractMessage pulls a human-readable message out of an error payload,
// preferring the server's detail field, then message, then a synthesized
// fallback carrying the status code.
func extractMessage(raw []byte, status int) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("server error (%d)", status)
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", baseURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

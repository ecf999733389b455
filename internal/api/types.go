package api

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

const legacyTimestampLayout = "2006-01-02 15:04:05"

// Role identifies a user's permission tier.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Level returns the numeric access level the server associates with the role.
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 1
	case RoleOperator:
		return 0
	default:
		return 2
	}
}

// RoleFromValue resolves a role from its string form, falling back to the
// numeric access level when the string is absent or unrecognized. Anything
// unresolvable maps to viewer.
func RoleFromValue(value string, accessLevel *int) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleOperator:
		return RoleOperator
	case RoleViewer:
		return RoleViewer
	}
	if accessLevel != nil {
		switch *accessLevel {
		case 1:
			return RoleAdmin
		case 0:
			return RoleOperator
		}
	}
	return RoleViewer
}

// FlexInt decodes a JSON value that may arrive as a number or a numeric
// string. Anything non-numeric is treated as absent rather than as an
// error: Int reports nil so role resolution falls through to its default.
type FlexInt struct {
	value int
	valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	parsed, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return nil
	}
	f.value = int(parsed)
	f.valid = true
	return nil
}

// Int returns the decoded value as a plain int pointer, nil when the
// receiver is nil or no numeric value was decoded.
func (f *FlexInt) Int() *int {
	if f == nil || !f.valid {
		return nil
	}
	v := f.value
	return &v
}

// ScanRecord is one logged pairing of a box identifier and a tracking
// number. The struct is comparable; structural equality of the three
// fields is its identity.
type ScanRecord struct {
	UserName string `json:"user_name"`
	BoxID    string `json:"boxid"`
	TTN      string `json:"ttn"`
}

// SubmitReply mirrors the /add_record response. Note is set when the
// server detected a duplicate submission.
type SubmitReply struct {
	Note string `json:"note"`
}

// LoginReply mirrors the /login response.
type LoginReply struct {
	Token       string   `json:"token"`
	AccessLevel *FlexInt `json:"access_level"`
	Role        string   `json:"role"`
	Surname     string   `json:"surname"`
}

// TrackRecord is one history entry from /get_history.
type TrackRecord struct {
	ID       int64  `json:"id"`
	UserName string `json:"user_name"`
	BoxID    string `json:"boxid"`
	TTN      string `json:"ttn"`
	Datetime string `json:"datetime"`
}

// OccurredAt returns the record timestamp, zero when unparseable.
func (r TrackRecord) OccurredAt() time.Time { return ParseTime(r.Datetime) }

// Operator returns the submitting operator's name.
func (r TrackRecord) Operator() string { return r.UserName }

// ErrorRecord is one entry from /get_errors.
type ErrorRecord struct {
	ID       int64  `json:"id"`
	UserName string `json:"user_name"`
	BoxID    string `json:"boxid"`
	TTN      string `json:"ttn"`
	Message  string `json:"message"`
	Datetime string `json:"datetime"`
}

// OccurredAt returns the record timestamp, zero when unparseable.
func (r ErrorRecord) OccurredAt() time.Time { return ParseTime(r.Datetime) }

// Operator returns the operator the error is attributed to.
func (r ErrorRecord) Operator() string { return r.UserName }

// PendingUser is a registration request awaiting admin review.
type PendingUser struct {
	ID        int64  `json:"id"`
	Surname   string `json:"surname"`
	CreatedAt string `json:"created_at"`
}

// ParsedCreatedAt returns the creation timestamp, zero when unparseable.
func (u PendingUser) ParsedCreatedAt() time.Time { return ParseTime(u.CreatedAt) }

// ManagedUser is an account visible to admin user management.
type ManagedUser struct {
	ID        int64  `json:"id"`
	Surname   string `json:"surname"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UserPatch carries the fields an admin may change on a user. Nil fields
// are omitted from the request.
type UserPatch struct {
	Role     *Role `json:"role,omitempty"`
	IsActive *bool `json:"is_active,omitempty"`
}

// ParseTime parses an API timestamp. Accepted forms are ISO-8601 with an
// explicit offset or trailing Z, a bare ISO-8601 value (treated as UTC),
// and the legacy space-separated form (also UTC). Unparseable values
// yield the zero time rather than an error.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return t
	}
	if t, err := time.Parse(legacyTimestampLayout, value); err == nil {
		return t
	}
	return time.Time{}
}

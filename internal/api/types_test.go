package api

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339 zulu", "2024-01-02T08:30:00Z", time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-01-02T08:30:00+02:00", time.Date(2024, 1, 2, 8, 30, 0, 0, time.FixedZone("", 2*3600))},
		{"bare iso treated as utc", "2024-01-02T08:30:00", time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)},
		{"legacy space form", "2024-01-02 08:30:00", time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)},
		{"fractional seconds", "2024-01-02T08:30:00.123456Z", time.Date(2024, 1, 2, 8, 30, 0, 123456000, time.UTC)},
		{"garbage", "yesterday", time.Time{}},
		{"empty", "", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTime(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoleFromValue(t *testing.T) {
	one, zero := 1, 0

	tests := []struct {
		name   string
		value  string
		level  *int
		want   Role
	}{
		{"explicit admin", "Admin", nil, RoleAdmin},
		{"explicit operator", "operator", nil, RoleOperator},
		{"explicit viewer", "viewer", nil, RoleViewer},
		{"level admin fallback", "", &one, RoleAdmin},
		{"level operator fallback", "", &zero, RoleOperator},
		{"unresolvable", "manager", nil, RoleViewer},
		{"nothing", "", nil, RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleFromValue(tt.value, tt.level); got != tt.want {
				t.Errorf("RoleFromValue(%q, %v) = %q, want %q", tt.value, tt.level, got, tt.want)
			}
		})
	}
}

func TestRoleLevel(t *testing.T) {
	if RoleAdmin.Level() != 1 || RoleOperator.Level() != 0 || RoleViewer.Level() != 2 {
		t.Fatalf("role levels = %d/%d/%d, want 1/0/2",
			RoleAdmin.Level(), RoleOperator.Level(), RoleViewer.Level())
	}
}

func TestFlexInt_DecodesNumbersAndStrings(t *testing.T) {
	var reply LoginReply
	if err := json.Unmarshal([]byte(`{"token":"t","access_level":2}`), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if level := reply.AccessLevel.Int(); level == nil || *level != 2 {
		t.Fatalf("numeric access level = %v, want 2", level)
	}

	reply = LoginReply{}
	if err := json.Unmarshal([]byte(`{"token":"t","access_level":"1"}`), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if level := reply.AccessLevel.Int(); level == nil || *level != 1 {
		t.Fatalf("string access level = %v, want 1", level)
	}

	reply = LoginReply{}
	if err := json.Unmarshal([]byte(`{"token":"t","access_level":null}`), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if level := reply.AccessLevel.Int(); level != nil {
		t.Fatalf("null access level = %v, want nil", level)
	}
}

func TestFlexInt_NonNumericValueReportsAbsent(t *testing.T) {
	var reply LoginReply
	if err := json.Unmarshal([]byte(`{"token":"t","access_level":"abc"}`), &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if level := reply.AccessLevel.Int(); level != nil {
		t.Fatalf("non-numeric access level = %v, want nil", level)
	}
	if got := RoleFromValue("", reply.AccessLevel.Int()); got != RoleViewer {
		t.Fatalf("role = %q, want viewer fallback", got)
	}
}

func TestScanRecord_StructuralEquality(t *testing.T) {
	a := ScanRecord{UserName: "Koval", BoxID: "B1", TTN: "T1"}
	b := ScanRecord{UserName: "Koval", BoxID: "B1", TTN: "T1"}
	c := ScanRecord{UserName: "Koval", BoxID: "B2", TTN: "T1"}

	if a != b {
		t.Fatalf("identical records compare unequal")
	}
	if a == c {
		t.Fatalf("distinct records compare equal")
	}
}

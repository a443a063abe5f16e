package http

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{"empty is zero", "", time.Time{}, false},
		{"calendar date", "2024-03-09", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 converted to utc", "2024-03-09T23:30:00+05:30", time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC), false},
		{"padded", "  2024-03-09 ", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), false},
		{"day first", "09-03-2024", time.Time{}, true},
		{"impossible day", "2024-02-30", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate("date", tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-01-31"}`), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.D.Format("2006-01-02") != "2024-01-31" {
		t.Errorf("D = %v", v.D)
	}

	if err := json.Unmarshal([]byte(`{"d":20240131}`), &v); err == nil {
		t.Error("numeric date should be rejected")
	}
}

func TestParsePeriodParam(t *testing.T) {
	p, err := parsePeriodParam(url.Values{})
	if err != nil || !p.IsZero() {
		t.Errorf("absent period = %v, %v; want zero", p, err)
	}

	p, err = parsePeriodParam(url.Values{"period": {"2024-02"}})
	if err != nil || p != (core.Period{Year: 2024, Month: time.February}) {
		t.Errorf("period = %v, %v", p, err)
	}

	if _, err := parsePeriodParam(url.Values{"period": {"2024-2"}}); err == nil {
		t.Error("period without zero padding should be rejected")
	}
}

func TestParseIntAndBoolParams(t *testing.T) {
	q := url.Values{"limit": {"25"}, "all": {"true"}, "bad": {"x"}}

	if n, err := parseIntParam(q, "limit"); err != nil || n != 25 {
		t.Errorf("parseIntParam(limit) = %d, %v", n, err)
	}
	if n, err := parseIntParam(q, "missing"); err != nil || n != 0 {
		t.Errorf("parseIntParam(missing) = %d, %v", n, err)
	}
	if _, err := parseIntParam(q, "bad"); err == nil {
		t.Error("parseIntParam(bad) should fail")
	}
	if b, err := parseBoolParam(q, "all"); err != nil || !b {
		t.Errorf("parseBoolParam(all) = %v, %v", b, err)
	}
	if _, err := parseBoolParam(q, "bad"); err == nil {
		t.Error("parseBoolParam(bad) should fail")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  Lunch  ":         "Lunch",
		"Tea\x00\x07 break": "Tea break",
		"line\nbreak":       "line\nbreak",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

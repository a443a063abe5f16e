package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into v, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errPayloadTooLarge{limit: tooLarge.Limit}
		}
		if errors.Is(err, io.EOF) {
			return errBadRequest{errors.New("request body is empty")}
		}
		return errBadRequest{fmt.Errorf("malformed JSON: %w", err)}
	}
	if dec.More() {
		return errBadRequest{errors.New("request body must contain a single JSON object")}
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// Date is a JSON date that accepts YYYY-MM-DD (midnight UTC) or RFC 3339.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return core.Invalid("date", "must be a string")
	}
	t, err := parseDate("date", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, core.Invalid(field, "must be YYYY-MM-DD or RFC 3339")
}

// parsePeriodParam reads ?period=YYYY-MM. Absent means the zero period,
// which services treat as the current month.
func parsePeriodParam(q url.Values) (core.Period, error) {
	v := strings.TrimSpace(q.Get("period"))
	if v == "" {
		return core.Period{}, nil
	}
	return core.ParsePeriod(v)
}

func parseDateParam(q url.Values, key string) (time.Time, error) {
	return parseDate(key, q.Get(key))
}

func parseIntParam(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid(key, "must be an integer")
	}
	return n, nil
}

func parseBoolParam(q url.Values, key string) (bool, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, core.Invalid(key, "must be true or false")
	}
	return b, nil
}

// Package http provides the JSON API over the expense ledger.
//
// This file holds the request parsing helpers shared by the handlers.
package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quaderno/internal/core"
)

// maxBodyBytes bounds request bodies read by RequestBodyParser.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields by name.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]interface{})
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("decode json body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Bool reports whether key holds a true value ("true", "1", "yes", "on").
func (p *RequestBodyParser) Bool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// stringValue converts a decoded JSON value to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
}

// ParseDateQuery reads a YYYY-MM-DD "date" parameter as midnight in loc.
// A missing parameter yields now.
func ParseDateQuery(query url.Values, loc *time.Location, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return now, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", v)
	}
	return t, nil
}

// dateKey is the calendar date of t in loc, used in cache keys.
func dateKey(t time.Time, loc *time.Location) string {
	return core.DateOf(t, loc).String()
}

// Package http provides the JSON API over the billing engine.
//
// This file parses request bodies. Bodies may be JSON objects or
// form-encoded; both decode to the same field lookups.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"powerbill/internal/core"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser reads the body once and serves field lookups from it.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
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

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		d := json.NewDecoder(strings.NewReader(body))
		d.UseNumber()
		if err := d.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("malformed JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetInts returns a list of integers from a JSON array or a comma-separated
// form value.
func (p *RequestBodyParser) GetInts(key string) ([]int, error) {
	var raw []string
	if p.jsonData != nil {
		switch v := p.jsonData[key].(type) {
		case []any:
			for _, item := range v {
				raw = append(raw, stringValue(item))
			}
		case nil:
		default:
			raw = strings.Split(stringValue(v), ",")
		}
	} else if s := p.Get(key); s != "" {
		raw = strings.Split(s, ",")
	}

	out := make([]int, 0, len(raw))
	for _, s := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a whole number", key, s)
		}
		out = append(out, n)
	}
	return out, nil
}

func stringValue(v any) string {
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

// parseAmount reads a money field, rejecting empty or malformed values.
func parseAmount(p *RequestBodyParser, key string) (decimal.Decimal, error) {
	return core.ParseAmount(p.Get(key))
}

// parseCategory accepts a category name or the numeric menu selector.
// Empty input and unknown selectors default to Domestic.
func parseCategory(s string) (core.Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Domestic, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return core.ClassifyCategory(n), nil
	}
	for _, c := range []core.Category{core.Domestic, core.Commercial} {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", core.ErrInvalidCategory
}

// parseStatus accepts Unpaid or Paid in any case. Empty input means Unpaid.
func parseStatus(s string) (core.Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.StatusUnpaid, nil
	}
	for _, st := range []core.Status{core.StatusUnpaid, core.StatusPaid} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", core.ErrInvalidStatus
}

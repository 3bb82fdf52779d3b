package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser reads form-encoded or JSON bodies, as sent by plain
// forms and the HTMX json-enc extension.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once. Query parameters are kept as a
// fallback for DELETE requests, which HTMX sends without a body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
		formData:    r.URL.Query(),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = errors.New("request body too large")
		}
	}
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil || len(p.body) == 0 {
		return p.err
	}

	if p.IsJSON() {
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("parse JSON body: %w", err)
		}
		return p.err
	}

	values, err := url.ParseQuery(string(p.body))
	if err != nil {
		p.err = fmt.Errorf("parse form body: %w", err)
		return p.err
	}
	for k, v := range values {
		p.formData[k] = v
	}
	return nil
}

// Get returns the trimmed value for key, preferring the body.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if v, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(stringValue(v))
		}
	}
	return strings.TrimSpace(p.formData.Get(key))
}

// Raw returns the untrimmed value for key.
func (p *RequestBodyParser) Raw(key string) string {
	if p.jsonData != nil {
		if v, ok := p.jsonData[key]; ok {
			return stringValue(v)
		}
	}
	return p.formData.Get(key)
}

func (p *RequestBodyParser) IsJSON() bool {
	return strings.HasPrefix(strings.ToLower(p.contentType), "application/json")
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool:
		return fmt.Sprint(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, stringValue(item))
		}
		return strings.Join(parts, "\n")
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// parseBody parses the request or writes a 400 and returns nil.
func parseBody(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato de requisição inválido").Write(w)
		return nil
	}
	return p
}

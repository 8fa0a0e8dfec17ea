package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxFormBytes bounds every non-multipart body the server reads.
const maxFormBytes = 64 << 10

// formBody is a submitted body flattened to string values. htmx posts
// url-encoded forms; hx-vals and json-enc post a JSON object. Both read the
// same way, and every value comes back trimmed with control characters
// stripped.
type formBody struct {
	values url.Values
}

// readForm reads at most maxFormBytes of r's body. A body whose first byte
// is '{' is decoded as a JSON object.
func readForm(r *http.Request) (*formBody, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) == 0 {
		return &formBody{values: url.Values{}}, nil
	}

	if raw[0] != '{' {
		v, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return &formBody{values: v}, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse json body: %w", err)
	}
	v := make(url.Values, len(obj))
	for key, val := range obj {
		if list, ok := val.([]any); ok {
			for _, item := range list {
				v.Add(key, scalar(item))
			}
			continue
		}
		if val != nil {
			v.Set(key, scalar(val))
		}
	}
	return &formBody{values: v}, nil
}

// parseBody reads the form or returns the 400 response to send instead.
func parseBody(r *http.Request) (*formBody, *HTMXResponseBuilder) {
	f, err := readForm(r)
	if err != nil {
		return nil, BadRequestError("Invalid request format")
	}
	return f, nil
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func (f *formBody) Get(key string) string {
	return clean(f.values.Get(key))
}

// Values returns the non-empty values under key in submission order. A
// JSON array and a repeated form field read the same way.
func (f *formBody) Values(key string) []string {
	out := []string{}
	for _, s := range f.values[key] {
		if s = clean(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Form flattens the body into a core.Form, leaving out the keys in skip.
func (f *formBody) Form(skip ...string) core.Form {
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	form := make(core.Form, len(keys))
	for _, k := range keys {
		form[k] = f.Get(k)
	}
	for _, k := range skip {
		delete(form, k)
	}
	return form
}

// clean trims s and drops ASCII control characters other than tab, LF and CR.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// checked reads an HTML checkbox or an hx-vals flag.
func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// clickTarget reads where a click landed from the hx-vals of the
// outside-click listener.
func clickTarget(f *formBody) (onButton, onPanel bool) {
	return checked(f.Get("on_button")), checked(f.Get("on_panel"))
}

// isHTMX reports whether the request came from an htmx swap rather than a
// full page navigation.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

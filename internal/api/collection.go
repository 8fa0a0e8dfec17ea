package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

// Collection is one list endpoint: GET returns the items, POST creates one
// from a flat form.
type Collection[T any] struct {
	client *Client
	path   string
	// envelope keys some servers wrap the array in, e.g. {"transactions": [...]}
	keys []string
}

// NewCollection binds a collection endpoint on c.
func NewCollection[T any](c *Client, path string, envelopeKeys ...string) Collection[T] {
	return Collection[T]{client: c, path: path, keys: envelopeKeys}
}

// Path returns the endpoint path.
func (col Collection[T]) Path() string {
	return col.path
}

// List fetches every item. A null body is an empty list.
func (col Collection[T]) List(ctx context.Context) ([]T, error) {
	raw, err := col.client.do(ctx, http.MethodGet, col.path, "", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](col.path, raw, col.keys)
}

// Create posts the form as a JSON object of strings.
func (col Collection[T]) Create(ctx context.Context, form core.Form) error {
	if form == nil {
		form = core.Form{}
	}
	var ack successBody
	if err := col.client.sendJSON(ctx, http.MethodPost, col.path, map[string]string(form), &ack); err != nil {
		return err
	}
	return ack.check()
}

func decodeList[T any](path string, raw []byte, keys []string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decode %s: %w: %v", path, ErrUnexpectedResponse, err)
		}
		found := false
		for _, k := range keys {
			if inner, ok := envelope[k]; ok {
				trimmed, found = inner, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("decode %s: %w: object without list", path, ErrUnexpectedResponse)
		}
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", path, ErrUnexpectedResponse, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

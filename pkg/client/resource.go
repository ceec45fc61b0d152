package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/naveenspark/roster/pkg/domain"
)

// Resource is the CRUD surface of one entity kind.
type Resource[R domain.Record, D domain.Draft] struct {
	c    *Client
	path string
	one  string // singular name for error prefixes
	many string // plural name for error prefixes
}

// List fetches one page. Pages start at 1.
func (r *Resource[R, D]) List(ctx context.Context, page int) (domain.Page[R], error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	var env envelope
	if err := r.c.get(ctx, r.path+"?"+params.Encode(), &env); err != nil {
		return domain.Page[R]{}, fmt.Errorf("client.List%s: %w", r.many, err)
	}
	var out domain.Page[R]
	if err := decodeData(env.Data, &out.Records); err != nil {
		return domain.Page[R]{}, fmt.Errorf("client.List%s: %w", r.many, err)
	}
	if out.Records == nil {
		out.Records = []R{}
	}
	if env.Meta.Pagination != nil {
		out.Pagination = *env.Meta.Pagination
	}
	return out, nil
}

// Get fetches a single record. An unknown id yields domain.ErrNotFound.
func (r *Resource[R, D]) Get(ctx context.Context, id domain.ID) (R, error) {
	var rec R
	var env envelope
	if err := r.c.get(ctx, r.itemPath(id), &env); err != nil {
		return rec, fmt.Errorf("client.Get%s: %w", r.one, err)
	}
	if err := decodeData(env.Data, &rec); err != nil {
		return rec, fmt.Errorf("client.Get%s: %w", r.one, err)
	}
	return rec, nil
}

// Create submits a draft as multipart form data and returns the stored record.
func (r *Resource[R, D]) Create(ctx context.Context, draft D) (R, error) {
	var rec R
	var env envelope
	if err := r.c.post(ctx, r.path, draftForm(draft), &env); err != nil {
		return rec, fmt.Errorf("client.Create%s: %w", r.one, err)
	}
	if err := decodeData(env.Data, &rec); err != nil {
		return rec, fmt.Errorf("client.Create%s: %w", r.one, err)
	}
	return rec, nil
}

// Update replaces the fields of an existing record. Multipart bodies go out
// as POST with the _method=PATCH override.
func (r *Resource[R, D]) Update(ctx context.Context, id domain.ID, draft D) (R, error) {
	var rec R
	var env envelope
	if err := r.c.post(ctx, r.itemPath(id)+"?_method=PATCH", draftForm(draft), &env); err != nil {
		return rec, fmt.Errorf("client.Update%s: %w", r.one, err)
	}
	if err := decodeData(env.Data, &rec); err != nil {
		return rec, fmt.Errorf("client.Update%s: %w", r.one, err)
	}
	return rec, nil
}

// Delete removes a record.
func (r *Resource[R, D]) Delete(ctx context.Context, id domain.ID) error {
	if err := r.c.doRequest(ctx, http.MethodDelete, r.itemPath(id), nil, nil); err != nil {
		return fmt.Errorf("client.Delete%s: %w", r.one, err)
	}
	return nil
}

func (r *Resource[R, D]) itemPath(id domain.ID) string {
	return r.path + "/" + url.PathEscape(id.String())
}

func decodeData(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out *envelope) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body *form, out *envelope) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

package apiclient

import (
	"context"
	"net/http"
)

// Get fetches path and decodes the response as T.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return send[T](ctx, c, Request{Method: http.MethodGet, Path: path})
}

// Post sends body (nil for none) to path.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return send[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put replaces the resource at path with body.
func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return send[T](ctx, c, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch partially updates the resource at path.
func Patch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return send[T](ctx, c, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete removes the resource at path.
func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	return send[T](ctx, c, Request{Method: http.MethodDelete, Path: path})
}

// UploadFile posts form as multipart/form-data.
func UploadFile[T any](ctx context.Context, c *Client, path string, form *FormData) (T, error) {
	if form == nil {
		form = NewFormData()
	}
	return send[T](ctx, c, Request{Method: http.MethodPost, Path: path, Form: form})
}

func send[T any](ctx context.Context, c *Client, r Request) (T, error) {
	var out T
	if err := c.Do(ctx, r, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

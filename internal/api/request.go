package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request is an immutable description of one backend call. Retry state is
// threaded through dispatch explicitly instead of being flagged on the
// request, so a descriptor can be replayed byte-for-byte.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is the outcome of a dispatched request. The body is fully read
// and buffered so it can be decoded more than once.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

package oauth2

import "net/http"

// Response collects what the engine wants written back to the client: a
// status code, headers and a body value. It starts empty and is mutated
// exactly once, by the terminal success or error render; the transport layer
// copies it to the wire afterwards.
type Response struct {
	status int
	header http.Header
	body   any
}

// NewResponse returns an empty response sink.
func NewResponse() *Response {
	return &Response{header: http.Header{}}
}

// SetStatus records the HTTP status code to respond with.
func (r *Response) SetStatus(status int) {
	r.status = status
}

// SetHeader records a response header, replacing any previous value.
func (r *Response) SetHeader(key, value string) {
	r.header.Set(key, value)
}

// SetBody records the response body value.
func (r *Response) SetBody(body any) {
	r.body = body
}

// Status returns the recorded status code, 0 when none has been set.
func (r *Response) Status() int {
	return r.status
}

// Header returns the recorded value for key, "" when unset.
func (r *Response) Header(key string) string {
	return r.header.Get(key)
}

// Headers returns all recorded headers.
func (r *Response) Headers() http.Header {
	return r.header
}

// Body returns the recorded body value, nil when none has been set.
func (r *Response) Body() any {
	return r.body
}

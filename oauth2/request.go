package oauth2

import (
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Request is the transport-agnostic view of a token request: the method, the
// headers, the decoded form body and the query parameters. Header lookups are
// case-insensitive. The engine treats a Request as read-only for the duration
// of handling.
type Request struct {
	Method string
	Header http.Header
	Body   url.Values
	Query  url.Values
}

// NewRequest builds a Request from its parts, copying each one so later
// mutation by the caller cannot leak into request handling.
func NewRequest(method string, header http.Header, body url.Values, query url.Values) *Request {
	return &Request{
		Method: method,
		Header: cloneHeader(header),
		Body:   cloneValues(body),
		Query:  cloneValues(query),
	}
}

// FromHTTPRequest adapts a live *http.Request into the boundary Request type,
// decoding the form body. The request body reader is consumed.
func FromHTTPRequest(r *http.Request) (*Request, error) {
	if err := r.ParseForm(); err != nil {
		return nil, errors.Wrap(err, "[FromHTTPRequest] failed to parse form body")
	}
	return &Request{
		Method: r.Method,
		Header: cloneHeader(r.Header),
		Body:   cloneValues(r.PostForm),
		Query:  cloneValues(r.URL.Query()),
	}, nil
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}

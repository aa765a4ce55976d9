package handler

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/jrsteele09/go-token-server/oauth2"
)

// clientCredentials is the client id/secret pair presented by a token
// request, before the model has vouched for it.
type clientCredentials struct {
	ID     string
	Secret string
}

var (
	// vscharPattern matches the RFC 6749 appendix A VSCHAR set, the
	// printable ASCII range client ids and secrets must stay within.
	vscharPattern = regexp.MustCompile(`^[\x20-\x7e]+$`)

	// grantNamePattern is the token-identifier shape built-in grant names
	// must match.
	grantNamePattern = regexp.MustCompile(`^[A-Za-z0-9\-._~/]+$`)

	// uriPattern recognizes URI-shaped grant names, which are registered by
	// exact string and exempt from the identifier shape check.
	uriPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]+:`)

	// scopePattern matches space-delimited NQCHAR scope strings.
	scopePattern = regexp.MustCompile(`^[\x21\x23-\x5b\x5d-\x7e ]+$`)
)

// getClientCredentials reads the client id and secret from the request,
// preferring the Authorization Basic header over the client_id/client_secret
// body fields. A pair that cannot be assembled from either source is an
// invalid_client failure rather than invalid_request, since it leaves the
// client unidentified.
func getClientCredentials(req *oauth2.Request) (*clientCredentials, error) {
	if id, secret, ok := decodeBasicAuth(req.Header.Get("Authorization")); ok {
		return validateClientCredentials(id, secret)
	}
	return validateClientCredentials(req.Body.Get("client_id"), req.Body.Get("client_secret"))
}

// decodeBasicAuth unpacks an Authorization header of the Basic scheme.
// Headers of other schemes or with undecodable payloads report !ok so the
// caller can fall back to body credentials.
func decodeBasicAuth(header string) (id, secret string, ok bool) {
	if header == "" {
		return "", "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "basic") {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", false
	}
	creds := strings.SplitN(string(decoded), ":", 2)
	if len(creds) != 2 {
		return "", "", false
	}
	return creds[0], creds[1], true
}

func validateClientCredentials(id, secret string) (*clientCredentials, error) {
	if id == "" || secret == "" {
		return nil, oauth2.NewInvalidClientError("cannot retrieve client credentials")
	}
	if !vscharPattern.MatchString(id) {
		return nil, oauth2.NewInvalidRequestError("invalid parameter: client_id")
	}
	if !vscharPattern.MatchString(secret) {
		return nil, oauth2.NewInvalidRequestError("invalid parameter: client_secret")
	}
	return &clientCredentials{ID: id, Secret: secret}, nil
}

package oauth2_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    *oauth2.Error
		kind   oauth2.Kind
		code   string
		status int
	}{
		{"invalid argument", oauth2.NewInvalidArgumentError("missing parameter: model"), oauth2.KindInvalidArgument, "server_error", http.StatusInternalServerError},
		{"invalid request", oauth2.NewInvalidRequestError("method must be POST"), oauth2.KindInvalidRequest, "invalid_request", http.StatusBadRequest},
		{"invalid client", oauth2.NewInvalidClientError("client is invalid"), oauth2.KindInvalidClient, "invalid_client", http.StatusBadRequest},
		{"invalid grant", oauth2.NewInvalidGrantError("user credentials are invalid"), oauth2.KindInvalidGrant, "invalid_grant", http.StatusBadRequest},
		{"unauthorized client", oauth2.NewUnauthorizedClientError("grant type is not allowed"), oauth2.KindUnauthorizedClient, "unauthorized_client", http.StatusBadRequest},
		{"unsupported grant type", oauth2.NewUnsupportedGrantTypeError("unsupported grant type"), oauth2.KindUnsupportedGrantType, "unsupported_grant_type", http.StatusBadRequest},
		{"access denied", oauth2.NewAccessDeniedError("request denied"), oauth2.KindAccessDenied, "access_denied", http.StatusBadRequest},
		{"server error", oauth2.NewServerError("boom"), oauth2.KindServerError, "server_error", http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.kind, tc.err.Kind)
			require.Equal(t, tc.code, tc.err.Kind.Code())
			require.Equal(t, tc.status, tc.err.Status)
		})
	}
}

func TestNormalizeError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.Nil(t, oauth2.NormalizeError(nil))
	})

	t.Run("protocol errors pass through unchanged", func(t *testing.T) {
		original := oauth2.NewInvalidGrantError("authorization code is invalid")
		normalized := oauth2.NormalizeError(original)
		require.Same(t, original, normalized)
	})

	t.Run("wrapped protocol errors are unwrapped, not re-wrapped", func(t *testing.T) {
		original := oauth2.NewInvalidClientError("client is invalid")
		wrapped := errors.Join(errors.New("outer"), original)
		normalized := oauth2.NormalizeError(wrapped)
		require.Same(t, original, normalized)
	})

	t.Run("foreign errors become server errors with the cause attached", func(t *testing.T) {
		cause := errors.New("connection refused")
		normalized := oauth2.NormalizeError(cause)
		require.Equal(t, oauth2.KindServerError, normalized.Kind)
		require.Equal(t, http.StatusServiceUnavailable, normalized.Status)
		require.Equal(t, "connection refused", normalized.Message)
		require.ErrorIs(t, normalized, cause)
	})
}

func TestErrorWithStatus(t *testing.T) {
	original := oauth2.NewInvalidClientError("client is invalid")
	overridden := original.WithStatus(http.StatusUnauthorized)

	require.Equal(t, http.StatusUnauthorized, overridden.Status)
	require.Equal(t, http.StatusBadRequest, original.Status)
	require.Equal(t, original.Kind, overridden.Kind)
	require.Equal(t, original.Message, overridden.Message)
}

func TestAsError(t *testing.T) {
	t.Run("finds a protocol error in a chain", func(t *testing.T) {
		oerr, ok := oauth2.AsError(oauth2.NewInvalidRequestError("missing parameter: grant_type"))
		require.True(t, ok)
		require.Equal(t, oauth2.KindInvalidRequest, oerr.Kind)
	})

	t.Run("reports absence for foreign errors", func(t *testing.T) {
		_, ok := oauth2.AsError(errors.New("plain"))
		require.False(t, ok)
	})
}

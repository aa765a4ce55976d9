package handler

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
)

// newBearerToken maps a persisted token onto the RFC 6749 §5.1 wire shape.
// expires_in is the whole seconds remaining until the access token expires,
// omitted when the token carries no expiry. refresh_token and scope are
// omitted when absent.
func newBearerToken(token *model.Token, now time.Time) oauth2.TokenResponse {
	body := oauth2.TokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    oauth2.BearerTokenType,
		RefreshToken: token.RefreshToken,
		Scope:        token.Scope,
	}
	if !token.AccessTokenExpiresAt.IsZero() {
		body.ExpiresIn = int(token.AccessTokenExpiresAt.Sub(now) / time.Second)
	}
	return body
}

// renderSuccess writes the terminal success state: the bearer body, the
// no-cache headers tokens always travel with, and status 200.
func renderSuccess(resp *oauth2.Response, token *model.Token, now time.Time) {
	resp.SetHeader("Cache-Control", "no-store")
	resp.SetHeader("Pragma", "no-cache")
	resp.SetBody(newBearerToken(token, now))
	resp.SetStatus(http.StatusOK)
}

// renderError writes the terminal error state. A failed client
// authentication that arrived with an Authorization header answers 401 with
// a WWW-Authenticate challenge, per RFC 6749 §5.2; every other error renders
// with the status its kind carries.
func renderError(resp *oauth2.Response, oauthErr *oauth2.Error, authHeaderPresent bool) {
	status := oauthErr.Status
	if oauthErr.Kind == oauth2.KindInvalidClient && authHeaderPresent {
		status = http.StatusUnauthorized
		resp.SetHeader("WWW-Authenticate", `Basic realm="Service"`)
	}
	resp.SetBody(oauth2.ErrorResponse{
		Error:            oauthErr.Kind.Code(),
		ErrorDescription: oauthErr.Message,
	})
	resp.SetStatus(status)
}

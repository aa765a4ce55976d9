package model

// User is the resource owner a token is issued for. The engine treats it as
// opaque; only model implementations read or populate its fields. Grants that
// carry no end user (client_credentials) resolve to the client's service
// account user.
type User struct {
	ID       string `json:"id,omitempty"`       // Unique identifier for the user
	Username string `json:"username,omitempty"` // Unique username
	Email    string `json:"email,omitempty"`    // User's email address
}

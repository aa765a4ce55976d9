package model

// Client is a registered OAuth2 client as the engine sees it: an identifier
// and the grant type names the client may use at the token endpoint. Client
// secrets are matched inside the model implementation during GetClient and
// are never carried on this type.
type Client struct {
	ID          string   `json:"id"`                    // Unique client identifier
	Description string   `json:"description,omitempty"` // Human-readable label, informational only
	Grants      []string `json:"grants"`                // Grant type names this client may use
}

// HasGrant reports whether the client's registration allows the named grant
// type. The comparison is exact, including extension grant URIs.
func (c *Client) HasGrant(grant string) bool {
	for _, g := range c.Grants {
		if g == grant {
			return true
		}
	}
	return false
}

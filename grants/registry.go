package grants

import "github.com/jrsteele09/go-token-server/oauth2"

// Registry maps grant type names (built-in names or extension URIs) to
// strategy factories.
type Registry map[string]Factory

// BuiltIns returns the fixed registry of built-in grant types.
func BuiltIns() Registry {
	return Registry{
		string(oauth2.PasswordGrant): func(cfg Config) (Handler, error) {
			return NewPassword(cfg)
		},
		string(oauth2.ClientCredentialsGrant): func(cfg Config) (Handler, error) {
			return NewClientCredentials(cfg)
		},
		string(oauth2.AuthorizationCodeGrant): func(cfg Config) (Handler, error) {
			return NewAuthorizationCode(cfg)
		},
		string(oauth2.RefreshTokenGrant): func(cfg Config) (Handler, error) {
			return NewRefreshToken(cfg)
		},
	}
}

// Merge returns a copy of the registry with the given extension grants added.
// An extension registered under a built-in name is dropped; built-ins are
// never overridden.
func (r Registry) Merge(extensions map[string]Factory) Registry {
	merged := make(Registry, len(r)+len(extensions))
	for name, factory := range r {
		merged[name] = factory
	}
	for name, factory := range extensions {
		if _, exists := merged[name]; exists {
			continue
		}
		merged[name] = factory
	}
	return merged
}

// Lookup returns the factory registered under name.
func (r Registry) Lookup(name string) (Factory, bool) {
	factory, ok := r[name]
	return factory, ok
}

package creds

import "fmt"

// Kind identifies which of the supported auth payload shapes a Payload
// carries. The shapes are mutually exclusive; DecodePayload picks exactly one
// in precedence order.
type Kind int

const (
	KindNone Kind = iota
	KindRefreshToken
	KindAccessToken
	KindSecretRef
	KindUserID
)

func (k Kind) String() string {
	switch k {
	case KindRefreshToken:
		return "refresh_token"
	case KindAccessToken:
		return "access_token"
	case KindSecretRef:
		return "secret_reference"
	case KindUserID:
		return "user_id"
	default:
		return "none"
	}
}

// Payload is the decoded auth argument of a tool call: one credential source
// plus any explicit overrides supplied alongside it. Explicit fields always
// win over values resolved from a secret or server defaults.
type Payload struct {
	Kind Kind

	RefreshToken string
	AccessToken  string
	SecretRef    string
	UserID       string

	// Optional explicit overrides.
	DeveloperToken  string
	ClientID        string
	ClientSecret    string
	LoginCustomerID string
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// DecodePayload turns a raw auth argument map into a tagged Payload. The
// credential source is chosen by fixed precedence: refresh_token, then
// access_token, then secret_name, then user_id. A map matching none of the
// shapes is rejected with ErrMissingCredential.
func DecodePayload(args map[string]any) (Payload, error) {
	p := Payload{
		RefreshToken:    stringArg(args, "refresh_token"),
		AccessToken:     stringArg(args, "access_token"),
		SecretRef:       stringArg(args, "secret_name"),
		UserID:          stringArg(args, "user_id"),
		DeveloperToken:  stringArg(args, "developer_token"),
		ClientID:        stringArg(args, "client_id"),
		ClientSecret:    stringArg(args, "client_secret"),
		LoginCustomerID: stringArg(args, "login_customer_id"),
	}
	if p.SecretRef == "" {
		// Older clients send the fully qualified version name.
		p.SecretRef = stringArg(args, "secret_version_name")
	}

	switch {
	case p.RefreshToken != "":
		p.Kind = KindRefreshToken
	case p.AccessToken != "":
		p.Kind = KindAccessToken
	case p.SecretRef != "":
		p.Kind = KindSecretRef
	case p.UserID != "":
		p.Kind = KindUserID
	default:
		return Payload{}, fmt.Errorf("decoding auth payload: %w", ErrMissingCredential)
	}
	return p, nil
}

package contacts

import (
	"context"
	"strings"
)

// Contact carries the reminder recipients for a user.
type Contact struct {
	Email string
	Phone string
}

type Provider interface {
	Lookup(ctx context.Context, userID string) (Contact, error)
}

// staticProvider derives an email address from the user id and a company
// mail domain. Used when the auth-service directory is not reachable.
type staticProvider struct {
	domain string
}

func NewStaticProvider(domain string) Provider {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		domain = "vibeseat.local"
	}
	return &staticProvider{domain: domain}
}

func (p *staticProvider) Lookup(_ context.Context, userID string) (Contact, error) {
	return Contact{Email: userID + "@" + p.domain}, nil
}

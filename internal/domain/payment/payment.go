// Package payment holds the external payment links a business shows to
// customers paying with a non-cash method.
package payment

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

// ErrInvalidLink is returned for a link that cannot be stored.
var ErrInvalidLink = errors.New("invalid payment link")

// Link is the configured URL for one external provider.
type Link struct {
	Provider sale.PaymentMethod `json:"provider"`
	URL      string             `json:"link"`
	Active   bool               `json:"active"`
}

// Validate checks that the provider is a non-cash method and the URL is
// absolute http(s). An inactive link may have an empty URL.
func (l Link) Validate() error {
	if !l.Provider.Valid() || l.Provider.IsCash() {
		return errors.Wrapf(ErrInvalidLink, "provider %q", l.Provider)
	}
	if l.URL == "" && !l.Active {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(l.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(ErrInvalidLink, "url %q", l.URL)
	}
	return nil
}

// Repository stores links for the user in the context. Upsert replaces the
// row for the same provider.
type Repository interface {
	List(ctx context.Context) ([]Link, error)
	Upsert(ctx context.Context, l Link) error
}

// ActiveLink returns the active link for method, if one is configured.
func ActiveLink(ctx context.Context, repo Repository, method sale.PaymentMethod) (string, bool, error) {
	links, err := repo.List(ctx)
	if err != nil {
		return "", false, errors.Wrap(err, "list payment links")
	}
	for _, l := range links {
		if l.Provider == method && l.Active && l.URL != "" {
			return l.URL, true, nil
		}
	}
	return "", false, nil
}

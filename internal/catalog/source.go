package catalog

import "context"

// Source is the asset-source capability the run coordinator depends on.
// The shipped implementation is the portal REST client; browser-automation
// transports satisfy the same contract.
type Source interface {
	// Fetch returns every candidate asset the portal knows for the
	// identifier. Unresolvable identifiers fail with services.ErrNotFound;
	// transient transport failures with services.ErrPortalUnavailable.
	Fetch(ctx context.Context, bmn string) ([]Asset, error)
	// Download retrieves the asset's JPG rendition bytes.
	Download(ctx context.Context, asset Asset) ([]byte, error)
}

package resolve

import (
	"context"

	"github.com/kalorio/kalorio/internal/catalog"
	"github.com/kalorio/kalorio/internal/community"
	"github.com/kalorio/kalorio/internal/domain"
	"github.com/kalorio/kalorio/internal/provider"
)

// CuratedTier resolves against the immutable startup dataset.
type CuratedTier struct {
	Catalog *catalog.Catalog
}

func (t *CuratedTier) Name() string { return SourceCurated }

func (t *CuratedTier) Lookup(_ context.Context, code string) (*domain.Product, error) {
	return t.Catalog.LookupByBarcode(code), nil
}

// CommunityTier resolves against approved community and imported rows.
type CommunityTier struct {
	Store *community.Store
}

func (t *CommunityTier) Name() string { return SourceCommunity }

func (t *CommunityTier) Lookup(ctx context.Context, code string) (*domain.Product, error) {
	row, err := t.Store.ApprovedByBarcode(ctx, code)
	if err != nil || row == nil {
		return nil, err
	}
	return row.ToProduct(), nil
}

// ExternalTier resolves against the third-party nutrition provider.
type ExternalTier struct {
	Client *provider.Client
}

func (t *ExternalTier) Name() string { return SourceExternal }

func (t *ExternalTier) Lookup(ctx context.Context, code string) (*domain.Product, error) {
	return t.Client.FetchByBarcode(ctx, code)
}

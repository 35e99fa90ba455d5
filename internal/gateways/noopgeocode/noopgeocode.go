// Package noopgeocode provides the absent GeoCodingGateway: every
// address resolves to nothing, matching spec's "optional; when absent,
// place/event creation succeeds only if lat/lng are supplied".
package noopgeocode

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/gateways"
)

// Gateway never resolves an address.
type Gateway struct{}

func (Gateway) ResolveAddressLatLng(ctx context.Context, address entities.Address) (*entities.MapPoint, error) {
	return nil, nil
}

var _ gateways.GeoCodingGateway = (*Gateway)(nil)

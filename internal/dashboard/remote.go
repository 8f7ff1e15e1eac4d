package dashboard

import (
	"context"
	"errors"

	"github.com/sysora/frontdesk/internal/hotelapi"
)

const dashboardPath = "/api/hotels/dashboard"

// Fetcher loads a snapshot from wherever the live data lives.
type Fetcher interface {
	FetchDashboard(ctx context.Context) (Snapshot, error)
}

// RemoteFetcher reads the dashboard from the hotel backend.
type RemoteFetcher struct {
	client *hotelapi.Client
}

func NewRemoteFetcher(client *hotelapi.Client) *RemoteFetcher {
	return &RemoteFetcher{client: client}
}

func (f *RemoteFetcher) FetchDashboard(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := f.client.Get(ctx, dashboardPath, nil, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Fallback reasons. The first group is the expected offline path; the rest
// point at a bug on one side of the wire.
const (
	reasonNone        = "none"
	reasonNoFetcher   = "no_fetcher"
	reasonNoToken     = "no_token"
	reasonUnavailable = "unavailable"
	reasonHTTPStatus  = "http_status"
	reasonRejected    = "rejected"
	reasonMalformed   = "malformed"
	reasonUnexpected  = "unexpected"
)

// classifyFailure names why a fetch failed and whether that is an expected
// offline condition.
func classifyFailure(err error) (reason string, expected bool) {
	var apiErr *hotelapi.APIError
	switch {
	case errors.Is(err, hotelapi.ErrNoToken):
		return reasonNoToken, true
	case errors.Is(err, hotelapi.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return reasonUnavailable, true
	case errors.As(err, &apiErr):
		if apiErr.Rejected() {
			return reasonRejected, true
		}
		return reasonHTTPStatus, true
	case errors.Is(err, hotelapi.ErrMalformed):
		return reasonMalformed, false
	default:
		return reasonUnexpected, false
	}
}

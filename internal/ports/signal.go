package ports

import "context"

// RawSignal is the upstream analysis output for a candidate token before
// any parsing: the token identity plus free-form analysis and decision text.
type RawSignal struct {
	TokenAddress string
	TokenName    string
	ChainID      string
	Analysis     string
	Decision     string
}

// SignalSource defines the interface to the upstream analysis service that
// produces trade decisions. Signal generation itself is outside this core.
type SignalSource interface {
	// Fetch retrieves the next candidate signal.
	Fetch(ctx context.Context) (*RawSignal, error)
}

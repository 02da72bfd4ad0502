package server

import (
	"context"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MirrorHealthService reports the ledger mirror's connectivity. With no
// mirror configured the wallet is fully served from memory and always healthy.
type MirrorHealthService struct {
	Mirror Pinger
}

// Probe implements the HealthService interface.
func (s MirrorHealthService) Probe(ctx context.Context) error {
	if s.Mirror == nil {
		return nil
	}
	return s.Mirror.Ping(ctx)
}

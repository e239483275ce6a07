package health

import "context"

// CachePinger checks result-cache backend availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// RegistryReader reports how many services are configured.
type RegistryReader interface {
	Len() int
}

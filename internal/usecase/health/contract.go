package health

import "context"

// DBPinger checks articles database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks document store availability.
type IndexChecker interface {
	Health(ctx context.Context) error
}

// CachePinger checks result cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

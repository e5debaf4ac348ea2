package worker

import (
	"context"

	"github.com/mitchfriedman/soirees/lib/discovery"
)

type Repo interface {
	Leaser
	Registerer
}

type Leaser interface {
	RenewLease(ctx context.Context, workerID string, note string) error
}

type Registerer interface {
	Register(context.Context, discovery.Registration) error
	Deregister(context.Context, string) error
}

var _ Repo = (*discovery.Registry)(nil)

package queue

import "context"

type Session = session

func WithDialer(d func(ctx context.Context) (Session, error)) ConsumerOption {
	return withDialer(d)
}

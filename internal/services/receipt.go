package services

import (
	"context"
	"errors"

	"github.com/yungbote/recipebook-backend/internal/data/repos"
	"github.com/yungbote/recipebook-backend/internal/domain"
)

var ErrNotIssued = errors.New("write could not be issued")

// Receipt tracks one add or update. The message is posted as soon as the
// write has been issued; Confirm additionally waits for the store.
type Receipt struct {
	accepted bool

	posted  chan struct{}
	message string
	err     error

	settled chan struct{}
	result  repos.WriteResult
}

func newReceipt(accepted bool) *Receipt {
	return &Receipt{
		accepted: accepted,
		posted:   make(chan struct{}),
		settled:  make(chan struct{}),
	}
}

// Accepted reports whether the aggregate passed validation.
func (r *Receipt) Accepted() bool { return r.accepted }

func (r *Receipt) post(message string, err error) {
	r.message = message
	r.err = err
	close(r.posted)
}

func (r *Receipt) settle(res repos.WriteResult) {
	r.result = res
	close(r.settled)
}

// track settles the receipt when the write result arrives.
func (r *Receipt) track(ch <-chan repos.WriteResult) {
	go func() {
		res, ok := <-ch
		if !ok {
			res = repos.WriteResult{Err: ErrNotIssued}
		}
		r.settle(res)
	}()
}

// Message waits for the outcome message that was posted for this request.
func (r *Receipt) Message(ctx context.Context) (string, error) {
	select {
	case <-r.posted:
		return r.message, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Confirm waits until the store acknowledged the write and returns the
// recipe id it was stored under.
func (r *Receipt) Confirm(ctx context.Context) (int64, error) {
	if !r.accepted {
		return 0, domain.ErrInvalidRecipe
	}
	select {
	case <-r.settled:
		return r.result.RecipeID, r.result.Err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

package server

import (
	"context"

	"github.com/cofc/campushunt/internal/docstore"
)

// Store is the document store as seen by the HTTP handlers.
type Store interface {
	Get(ctx context.Context, collection, id string, dest any) error
	List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error)
	Create(ctx context.Context, collection string, doc any) (string, error)
	Set(ctx context.Context, collection, id string, doc any) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, collection string) *docstore.Subscription
}

package preferences

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "preference not found" }

type Repo interface {
	Get(ctx context.Context, userID, key string) (string, error)
	GetAll(ctx context.Context, userID string) (map[string]string, error)
	Set(ctx context.Context, userID, key, value string) error
	Delete(ctx context.Context, userID, key string) error
	// Apply performs the given upserts and deletes atomically; either every
	// mutation is applied or none is.
	Apply(ctx context.Context, userID string, sets map[string]string, deletes []string) error

	GetOrgTag(ctx context.Context, userID, org, key string) (string, error)
	SetOrgTag(ctx context.Context, userID, org, key, value string) error
}

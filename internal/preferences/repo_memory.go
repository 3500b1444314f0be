package preferences

import (
	"context"
	"sync"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	prefs map[string]map[string]string // userID -> key -> value
	tags  map[string]string            // userID/org/key -> value
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		prefs: make(map[string]map[string]string),
		tags:  make(map[string]string),
	}
}

func (r *MemoryRepo) Get(ctx context.Context, userID, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.prefs[userID][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (r *MemoryRepo) GetAll(ctx context.Context, userID string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.prefs[userID]))
	for key, value := range r.prefs[userID] {
		out[key] = value
	}
	return out, nil
}

func (r *MemoryRepo) Set(ctx context.Context, userID, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setLocked(userID, key, value)
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prefs[userID][key]; !ok {
		return ErrNotFound
	}
	delete(r.prefs[userID], key)
	return nil
}

func (r *MemoryRepo) Apply(ctx context.Context, userID string, sets map[string]string, deletes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, value := range sets {
		r.setLocked(userID, key, value)
	}
	for _, key := range deletes {
		delete(r.prefs[userID], key)
	}
	return nil
}

func (r *MemoryRepo) GetOrgTag(ctx context.Context, userID, org, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.tags[tagKey(userID, org, key)]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (r *MemoryRepo) SetOrgTag(ctx context.Context, userID, org, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[tagKey(userID, org, key)] = value
	return nil
}

func (r *MemoryRepo) setLocked(userID, key, value string) {
	if r.prefs[userID] == nil {
		r.prefs[userID] = make(map[string]string)
	}
	r.prefs[userID][key] = value
}

func tagKey(userID, org, key string) string {
	return userID + "/" + org + "/" + key
}

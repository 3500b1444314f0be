package preferences

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"learning-backend/internal/users"
)

const (
	// MaxKeyLength bounds preference key names.
	MaxKeyLength = 255

	// EmailOptInKey is the per-org tag recording whether a user receives
	// organization email.
	EmailOptInKey = "email-optin"

	// EmailOptInMinimumAge is the youngest age allowed to opt in. Users
	// below it are always recorded as opted out.
	EmailOptInMinimumAge = 13
)

var keyPattern = regexp.MustCompile(`^[-_a-zA-Z0-9]+$`)

// ValidationErrors maps each rejected preference key to a developer message.
// A batch update that produces any entry is rejected as a whole.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	return fmt.Sprintf("invalid preferences: %d key(s) rejected", len(v))
}

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

func validateKey(key string) string {
	if !keyPattern.MatchString(key) || len(key) > MaxKeyLength {
		return fmt.Sprintf("Preference '%s' is not a valid preference name.", key)
	}
	return ""
}

// Get returns the stored value for key, or ErrNotFound when unset.
func (s *Service) Get(ctx context.Context, userID, key string) (string, error) {
	return s.Repo.Get(ctx, userID, key)
}

// GetOrDefault returns the stored value for key, or def when unset.
func (s *Service) GetOrDefault(ctx context.Context, userID, key, def string) (string, error) {
	value, err := s.Repo.Get(ctx, userID, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return value, err
}

// GetAll returns every preference the user has set, keyed by name. Unset
// preferences are simply absent.
func (s *Service) GetAll(ctx context.Context, userID string) (map[string]string, error) {
	return s.Repo.GetAll(ctx, userID)
}

// Set stores value under key, replacing any previous value. The key must
// match the allowed name pattern and the value must be non-empty.
func (s *Service) Set(ctx context.Context, userID, key, value string) error {
	if msg := validateKey(key); msg != "" {
		return ValidationErrors{key: msg}
	}
	if value == "" {
		return ValidationErrors{key: fmt.Sprintf("Preference '%s' cannot be set to an empty value.", key)}
	}
	return s.Repo.Set(ctx, userID, key, value)
}

// Delete removes key; ErrNotFound when the preference was not set.
func (s *Service) Delete(ctx context.Context, userID, key string) error {
	return s.Repo.Delete(ctx, userID, key)
}

// UpdateMany applies a batch of preference changes. A nil value deletes the
// key; any other value upserts it. Every key is validated before anything is
// written, and a single invalid entry rejects the whole batch, so partial
// application never occurs.
func (s *Service) UpdateMany(ctx context.Context, userID string, update map[string]*string) error {
	invalid := make(ValidationErrors)
	sets := make(map[string]string)
	var deletes []string
	for key, value := range update {
		if msg := validateKey(key); msg != "" {
			invalid[key] = msg
			continue
		}
		if value == nil {
			deletes = append(deletes, key)
		} else {
			sets[key] = *value
		}
	}
	if len(invalid) > 0 {
		return invalid
	}
	return s.Repo.Apply(ctx, userID, sets, deletes)
}

// SetEmailOptIn records the user's email opt-in choice for an organization.
// Users younger than EmailOptInMinimumAge are always recorded as opted out;
// an unknown year of birth counts as of-age.
func (s *Service) SetEmailOptIn(ctx context.Context, user users.User, org string, optIn bool) error {
	if optIn && !s.ofAge(user) {
		optIn = false
	}
	value := "false"
	if optIn {
		value = "true"
	}
	return s.Repo.SetOrgTag(ctx, user.ID, org, EmailOptInKey, value)
}

// GetEmailOptIn reports the stored opt-in flag for an organization; unset
// means opted out.
func (s *Service) GetEmailOptIn(ctx context.Context, userID, org string) (bool, error) {
	value, err := s.Repo.GetOrgTag(ctx, userID, org, EmailOptInKey)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func (s *Service) ofAge(user users.User) bool {
	if user.YearOfBirth == nil {
		return true
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	return now().Year()-*user.YearOfBirth > EmailOptInMinimumAge
}

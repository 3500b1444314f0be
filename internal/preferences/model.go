package preferences

import "time"

// Preference is a user's setting, stored as generic text to be processed by
// the client. (user, key) is unique; absence of a row means "unset", which is
// distinct from an empty-string value.
type Preference struct {
	UserID    string    `json:"userId"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrgTag is a per-(user, organization) setting; (user, org, key) is unique.
// The only key written by this service is the email opt-in flag.
type OrgTag struct {
	UserID    string    `json:"userId"`
	Org       string    `json:"org"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

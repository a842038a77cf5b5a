package clerk

import (
	"encoding/json"
	"time"
)

// EmailAddress is one of a user's addresses
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// User is the subset of Clerk's user object this service reads
type User struct {
	ID                    string                     `json:"id"`
	FirstName             *string                    `json:"first_name"`
	LastName              *string                    `json:"last_name"`
	ImageURL              string                     `json:"image_url"`
	PrimaryEmailAddressID *string                    `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress             `json:"email_addresses"`
	PublicMetadata        map[string]json.RawMessage `json:"public_metadata"`
	CreatedAt             int64                      `json:"created_at"` // unix milliseconds
	UpdatedAt             int64                      `json:"updated_at"`
}

// CreatedTime converts CreatedAt to a time.Time.
func (u User) CreatedTime() time.Time {
	return time.UnixMilli(u.CreatedAt).UTC()
}

// ListUsersParams are the optional filters of GET /users
type ListUsersParams struct {
	Limit   int
	Offset  int
	OrderBy string
}

// ErrorResponse is Clerk's error envelope
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

type APIError struct {
	Message     string `json:"message"`
	LongMessage string `json:"long_message"`
	Code        string `json:"code"`
}

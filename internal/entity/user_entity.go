// FILE: internal/entity/user_entity.go
package entity

import "time"

// Account is a user of the mock document service, created on first login
// from the provider identity.
type Account struct {
	Id            string
	GoogleSubject string
	Email         string
	FullName      string
	AvatarURL     string
	CreatedAt     time.Time
	LastLoginAt   time.Time
}

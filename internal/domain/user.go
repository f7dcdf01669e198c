package domain

import "time"

const (
	UserTypeDonor     = "donor"
	UserTypeRequester = "requester"
	UserTypeNGO       = "ngo"
)

func ValidUserType(t string) bool {
	return t == UserTypeDonor || t == UserTypeRequester || t == UserTypeNGO
}

type User struct {
	ID               string    `bson:"id"                          json:"id"`
	Email            string    `bson:"email"                       json:"email"`
	Name             string    `bson:"name"                        json:"name"`
	Picture          string    `bson:"picture,omitempty"           json:"picture,omitempty"`
	UserType         string    `bson:"user_type"                   json:"user_type"` // "donor" | "requester" | "ngo"
	City             string    `bson:"city"                        json:"city"`
	Phone            string    `bson:"phone,omitempty"             json:"phone,omitempty"`
	EmergencyContact string    `bson:"emergency_contact,omitempty" json:"emergency_contact,omitempty"`
	CreatedAt        time.Time `bson:"created_at"                  json:"created_at"`
}

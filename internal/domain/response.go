package domain

import "time"

const (
	ResponseStatusPending   = "pending"
	ResponseStatusAccepted  = "accepted"
	ResponseStatusCompleted = "completed"
)

type DonorResponse struct {
	ID         string    `bson:"id"         json:"id"`
	RequestID  string    `bson:"request_id" json:"request_id"`
	DonorID    string    `bson:"donor_id"   json:"donor_id"`
	DonorName  string    `bson:"donor_name" json:"donor_name"`
	DonorPhone string    `bson:"donor_phone" json:"donor_phone"`
	DonorEmail string    `bson:"donor_email" json:"donor_email"`
	Message    string    `bson:"message"    json:"message"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	Status     string    `bson:"status"     json:"status"` // "pending" | "accepted" | "completed"
}

package queue

import (
	"context"
	"time"
)

const Exchange = "blood.events"

// Routing keys on the blood.events topic exchange.
const (
	KeyUserRegistered  = "user.registered"
	KeyRequestCreated  = "request.created"
	KeyResponseCreated = "response.created"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, key string, event any, reqID string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }

type UserRegistered struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type RequestCreated struct {
	RequestID   string    `json:"request_id"`
	RequesterID string    `json:"requester_id"`
	City        string    `json:"city"`
	Urgency     string    `json:"urgency"`
	UnitsNeeded int       `json:"units_needed"`
	CreatedAt   time.Time `json:"created_at"`
}

type ResponseCreated struct {
	ResponseID string `json:"response_id"`
	RequestID  string `json:"request_id"`
	DonorID    string `json:"donor_id"`
}

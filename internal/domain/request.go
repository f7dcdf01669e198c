package domain

import "time"

const (
	UrgencyCritical = "critical"
	UrgencyUrgent   = "urgent"
	UrgencyNormal   = "normal"
)

const (
	RequestStatusActive    = "active"
	RequestStatusFulfilled = "fulfilled"
	RequestStatusExpired   = "expired"
)

func ValidUrgency(u string) bool {
	return u == UrgencyCritical || u == UrgencyUrgent || u == UrgencyNormal
}

func ValidRequestStatus(s string) bool {
	return s == RequestStatusActive || s == RequestStatusFulfilled || s == RequestStatusExpired
}

// BloodRequest denormalizes the requester's name and phone so list views
// don't need a join back to users.
type BloodRequest struct {
	ID              string    `bson:"id"                    json:"id"`
	RequesterID     string    `bson:"requester_id"          json:"requester_id"`
	RequesterName   string    `bson:"requester_name"        json:"requester_name"`
	RequesterPhone  string    `bson:"requester_phone"       json:"requester_phone"`
	PatientName     string    `bson:"patient_name"          json:"patient_name"`
	BloodGroup      string    `bson:"blood_group,omitempty" json:"blood_group,omitempty"`
	UnitsNeeded     int       `bson:"units_needed"          json:"units_needed"`
	HospitalName    string    `bson:"hospital_name"         json:"hospital_name"`
	HospitalAddress string    `bson:"hospital_address"      json:"hospital_address"`
	City            string    `bson:"city"                  json:"city"`
	Urgency         string    `bson:"urgency"               json:"urgency"` // "critical" | "urgent" | "normal"
	Description     string    `bson:"description"           json:"description"`
	CreatedAt       time.Time `bson:"created_at"            json:"created_at"`
	Status          string    `bson:"status"                json:"status"` // "active" | "fulfilled" | "expired"
	ResponsesCount  int       `bson:"responses_count"       json:"responses_count"`
}

package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tazhibayda/blood-service/internal/domain"
)

const listCap = 1000

func (s *Store) CreateRequest(ctx context.Context, r *domain.BloodRequest) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.colRequests.InsertOne(ctx, r)
	return err
}

func (s *Store) FindRequestByID(ctx context.Context, id string) (*domain.BloodRequest, error) {
	var r domain.BloodRequest
	err := s.colRequests.FindOne(ctx, bson.M{"id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &r, err
}

type RequestFilter struct {
	City    string
	Urgency string
	Status  string
}

func (s *Store) ListRequests(ctx context.Context, f RequestFilter) ([]domain.BloodRequest, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.City != "" {
		q["city"] = f.City
	}
	if f.Urgency != "" {
		q["urgency"] = f.Urgency
	}
	return s.listRequests(ctx, q)
}

func (s *Store) ListRequestsByRequester(ctx context.Context, requesterID string) ([]domain.BloodRequest, error) {
	return s.listRequests(ctx, bson.M{"requester_id": requesterID})
}

func (s *Store) listRequests(ctx context.Context, q bson.M) ([]domain.BloodRequest, error) {
	cur, err := s.colRequests.Find(ctx, q,
		optionsFind().SetLimit(listCap).
			SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.BloodRequest
	for cur.Next(ctx) {
		var r domain.BloodRequest
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cur.Err()
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id, status string) error {
	res, err := s.colRequests.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) IncRequestResponses(ctx context.Context, id string) error {
	_, err := s.colRequests.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$inc": bson.M{"responses_count": 1}},
	)
	return err
}

func (s *Store) CountRequests(ctx context.Context, status string) (int64, error) {
	q := bson.M{}
	if status != "" {
		q["status"] = status
	}
	return s.colRequests.CountDocuments(ctx, q)
}

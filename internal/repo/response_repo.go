package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/blood-service/internal/domain"
)

var ErrDuplicateResponse = errors.New("donor already responded to this request")

// CreateResponse relies on the unique (request_id, donor_id) index, so a
// concurrent double-submit surfaces as ErrDuplicateResponse rather than a
// second row.
func (s *Store) CreateResponse(ctx context.Context, r *domain.DonorResponse) error {
	sp, _ := tracer.StartSpanFromContext(ctx, "mongo.response.insert",
		tracer.Tag("request_id", r.RequestID),
	)
	defer sp.Finish()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.colResponses.InsertOne(ctx, r)
	if IsDup(err) {
		return ErrDuplicateResponse
	}
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

func (s *Store) FindResponse(ctx context.Context, requestID, donorID string) (*domain.DonorResponse, error) {
	var r domain.DonorResponse
	err := s.colResponses.FindOne(ctx, bson.M{"request_id": requestID, "donor_id": donorID}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &r, err
}

func (s *Store) ListResponsesByRequest(ctx context.Context, requestID string) ([]domain.DonorResponse, error) {
	return s.listResponses(ctx, bson.M{"request_id": requestID})
}

func (s *Store) ListResponsesByDonor(ctx context.Context, donorID string) ([]domain.DonorResponse, error) {
	return s.listResponses(ctx, bson.M{"donor_id": donorID})
}

func (s *Store) listResponses(ctx context.Context, q bson.M) ([]domain.DonorResponse, error) {
	cur, err := s.colResponses.Find(ctx, q,
		optionsFind().SetLimit(listCap).
			SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.DonorResponse
	for cur.Next(ctx) {
		var r domain.DonorResponse
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cur.Err()
}

func (s *Store) CountResponses(ctx context.Context) (int64, error) {
	return s.colResponses.CountDocuments(ctx, bson.M{})
}

package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	Client       *mongo.Client
	DB           *mongo.Database
	colUsers     *mongo.Collection
	colSessions  *mongo.Collection
	colRequests  *mongo.Collection
	colResponses *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := cli.Database(dbname)
	return &Store{
		Client:       cli,
		DB:           db,
		colUsers:     db.Collection("users"),
		colSessions:  db.Collection("sessions"),
		colRequests:  db.Collection("blood_requests"),
		colResponses: db.Collection("donor_responses"),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error { return s.Client.Disconnect(ctx) }

// EnsureIndexes creates the indexes the handlers rely on.
// ВАЖНО: TTL-индекс по sessions.expires_at только подчищает протухшие строки;
// валидность сессии всё равно проверяется при каждом lookup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	// users
	if _, err := s.colUsers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_id"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
	}); err != nil {
		return err
	}

	// sessions
	if _, err := s.colSessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_token"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expire"),
		},
	}); err != nil {
		return err
	}

	// blood_requests
	if _, err := s.colRequests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("requester_created_desc"),
		},
	}); err != nil {
		return err
	}

	// donor_responses: уникальная пара (request_id, donor_id) закрывает
	// гонку "проверил — вставил" при двойном отклике донора.
	_, err := s.colResponses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}, {Key: "donor_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_request_donor"),
		},
		{
			Keys:    bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("donor_created_desc"),
		},
	})
	return err
}

func IsDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce *mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}

// маленький хелпер — чтобы не тащить import options в каждую функцию
func optionsFind() *options.FindOptions { return options.Find() }

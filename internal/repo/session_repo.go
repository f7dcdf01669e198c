package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/blood-service/internal/domain"
)

func (s *Store) CreateSession(ctx context.Context, sess *domain.Session) error {
	sp, _ := tracer.StartSpanFromContext(ctx, "mongo.session.insert",
		tracer.Tag("user_id", sess.UserID),
	)
	defer sp.Finish()

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	sess.ExpiresAt = sess.ExpiresAt.UTC()
	_, err := s.colSessions.InsertOne(ctx, sess)
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

func (s *Store) FindSessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	sp, _ := tracer.StartSpanFromContext(ctx, "mongo.session.find")
	defer sp.Finish()

	var sess domain.Session
	err := s.colSessions.FindOne(ctx, bson.M{"session_token": token}).Decode(&sess)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, err
	}
	return &sess, nil
}

// DeleteSessionByToken is idempotent: deleting an unknown token is not an error.
func (s *Store) DeleteSessionByToken(ctx context.Context, token string) error {
	sp, _ := tracer.StartSpanFromContext(ctx, "mongo.session.delete")
	defer sp.Finish()

	_, err := s.colSessions.DeleteOne(ctx, bson.M{"session_token": token})
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

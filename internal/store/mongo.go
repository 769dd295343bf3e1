package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/abhisek/levelup/internal/mastery"
	"github.com/abhisek/levelup/internal/retry"
)

const progressCollection = "user_progress"

// MongoStore keeps progress in a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri, waits for the server to answer, selects
// database and ensures indexes.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	err = retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(progressCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user_id index: %w", err)
	}
	return nil
}

// ProgressRepo returns a ProgressRepo backed by this database.
func (s *MongoStore) ProgressRepo() ProgressRepo {
	return &mongoProgressRepo{coll: s.db.Collection(progressCollection)}
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type progressDocument struct {
	UserID         int64           `bson:"user_id"`
	Level          string          `bson:"level"`
	CorrectAnswers map[string]bool `bson:"correct_answers"`
	CompletedTests int             `bson:"completed_tests"`
	WeakTopics     []string        `bson:"weak_topics"`
	UpdatedAt      time.Time       `bson:"updated_at"`
}

func (d progressDocument) toProgress() *UserProgress {
	topics := d.WeakTopics
	if topics == nil {
		topics = []string{}
	}
	return &UserProgress{
		UserID:         d.UserID,
		Level:          mastery.Level(d.Level),
		CorrectAnswers: decodeAnswers(d.CorrectAnswers),
		CompletedTests: d.CompletedTests,
		WeakTopics:     topics,
		UpdatedAt:      d.UpdatedAt,
	}
}

// mongoProgressRepo implements ProgressRepo with a single upserting
// findAndModify per test, which MongoDB applies atomically per document.
type mongoProgressRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// progressUpsert builds the filter and update documents for upd.
// $inc on a missing counter starts from 0.
func progressUpsert(upd ProgressUpdate, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"user_id": upd.UserID}
	update := bson.M{
		"$set": bson.M{
			"level":           string(upd.Level),
			"correct_answers": encodeAnswers(upd.Answers),
			"weak_topics":     normalizeTopics(upd.WeakTopics),
			"updated_at":      now,
		},
		"$inc": bson.M{"completed_tests": 1},
	}
	return filter, update
}

func (r *mongoProgressRepo) Upsert(ctx context.Context, upd ProgressUpdate) (*UserProgress, error) {
	now := time.Now().UTC()
	if r.now != nil {
		now = r.now()
	}
	filter, update := progressUpsert(upd, now)
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc progressDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	return doc.toProgress(), nil
}

func (r *mongoProgressRepo) Get(ctx context.Context, userID int64) (*UserProgress, error) {
	var doc progressDocument
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return doc.toProgress(), nil
}

// Package mongostore is the users.UserRepo backed by a MongoDB document store.
package mongostore

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/connectspace/connectspace-api/internal/errors"
	"github.com/connectspace/connectspace-api/users"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "users"

var _ users.UserRepo = (*Store)(nil)

type Store struct {
	client *mongo.Client
	users  *mongo.Collection
}

// Open connects to MongoDB and ensures the unique email index exists
func Open(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("[mongostore Open] connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("[mongostore Open] ping: %w", err)
	}

	s := &Store{
		client: client,
		users:  client.Database(database).Collection(collectionName),
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("[mongostore] create indexes: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Intended for test cleanup.
func (s *Store) Drop(ctx context.Context) error {
	return s.users.Database().Drop(ctx)
}

func (s *Store) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormalizeEmail(user.Email)

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.ErrDuplicateAccount
		}
		return fmt.Errorf("[mongostore Create] insert: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, user *users.User) error {
	user.Email = users.NormalizeEmail(user.Email)
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.ErrDuplicateAccount
		}
		return fmt.Errorf("[mongostore Update] replace: %w", err)
	}
	if res.MatchedCount == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.findOne(ctx, bson.M{"email": users.NormalizeEmail(email)})
}

func (s *Store) GetByID(ctx context.Context, id string) (*users.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	var u users.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[mongostore] find user: %w", err)
	}
	return &u, nil
}

func (s *Store) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("[mongostore List] find: %w", err)
	}
	list := make([]*users.User, 0)
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("[mongostore List] decode: %w", err)
	}
	return list, nil
}

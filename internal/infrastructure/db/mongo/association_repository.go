package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paradoks/streeplijst-backend/internal/core/domain"
)

const collectionAssociations = "card_associations"

// associationDoc is the persisted shape; the username doubles as the
// document id, which gives upsert-by-username for free.
type associationDoc struct {
	Username string    `bson:"_id"`
	CardUID  string    `bson:"card_uid"`
	AddedAt  time.Time `bson:"added_at"`
}

func (d associationDoc) toDomain() domain.Association {
	return domain.Association{
		Username: d.Username,
		CardUID:  d.CardUID,
		AddedAt:  d.AddedAt,
	}
}

// AssociationRepository persists username to card-UID associations in the
// card_associations collection.
type AssociationRepository struct {
	col *mongo.Collection
}

func NewAssociationRepository(db *mongo.Database) *AssociationRepository {
	return &AssociationRepository{col: db.Collection(collectionAssociations)}
}

// Get returns the association for username.
func (r *AssociationRepository) Get(ctx context.Context, username string) (*domain.Association, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc associationDoc
	err := r.col.FindOne(ctx, bson.M{"_id": username}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAssociationNotFound
		}
		return nil, err
	}
	assoc := doc.toDomain()
	return &assoc, nil
}

// Upsert creates or overwrites the association for username. A cardUID that
// already belongs to a different username is rejected with
// domain.ErrCardUIDConflict; re-posting the same username replaces that
// user's own card and refreshes added_at.
func (r *AssociationRepository) Upsert(ctx context.Context, username, cardUID string) (*domain.Association, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// The unique index on card_uid backs this check against races.
	count, err := r.col.CountDocuments(ctx, bson.M{
		"card_uid": cardUID,
		"_id":      bson.M{"$ne": username},
	})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, domain.ErrCardUIDConflict
	}

	doc := associationDoc{
		Username: username,
		CardUID:  cardUID,
		AddedAt:  time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": username}, doc, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrCardUIDConflict
		}
		return nil, err
	}

	assoc := doc.toDomain()
	return &assoc, nil
}

// Delete removes the association for username.
func (r *AssociationRepository) Delete(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": username})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrAssociationNotFound
	}
	return nil
}

// ListAll returns every association ordered by username, so repeated reads
// of the same snapshot produce the same order.
func (r *AssociationRepository) ListAll(ctx context.Context) ([]domain.Association, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []associationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Association, len(docs))
	for i, doc := range docs {
		out[i] = doc.toDomain()
	}
	return out, nil
}

// EnsureIndexes creates the unique index enforcing one username per card.
func (r *AssociationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "card_uid", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := r.col.Indexes().CreateOne(ctx, index)
	return err
}

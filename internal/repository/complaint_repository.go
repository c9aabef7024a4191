package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const complaintCollection = "complaints"

// ComplaintFilter captures listing parameters.
type ComplaintFilter struct {
	OwnerID *string
}

// ComplaintRepository encapsulates complaint persistence. Inserts use the
// caller-assigned id, never a store-generated one.
type ComplaintRepository interface {
	Insert(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	ListPage(ctx context.Context, filter ComplaintFilter, limit, skip int64) ([]domain.Complaint, error)
	Count(ctx context.Context, filter ComplaintFilter) (int64, error)
	Delete(ctx context.Context, id string) error
}

type complaintRepository struct {
	collection *mongo.Collection
}

// NewComplaintRepository returns a Mongo-backed implementation.
func NewComplaintRepository(db *mongo.Database) ComplaintRepository {
	return &complaintRepository{collection: db.Collection(complaintCollection)}
}

func (r *complaintRepository) Insert(ctx context.Context, complaint *domain.Complaint) error {
	now := time.Now().UTC()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, complaint)
	return err
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) ListPage(ctx context.Context, filter ComplaintFilter, limit, skip int64) ([]domain.Complaint, error) {
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filterQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []domain.Complaint{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *complaintRepository) Count(ctx context.Context, filter ComplaintFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, filterQuery(filter))
}

func (r *complaintRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func filterQuery(filter ComplaintFilter) bson.M {
	query := bson.M{}
	if filter.OwnerID != nil {
		query["ownerId"] = *filter.OwnerID
	}
	return query
}

package repository

import (
	"context"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAuditLogRepository stores audit entries in a Mongo collection. Writes do not take part in
// Postgres transactions.
type MongoAuditLogRepository struct {
	collection *mongo.Collection
}

func NewMongoAuditLogRepository(ctx context.Context, db *mongo.Database) (*MongoAuditLogRepository, error) {
	collection := db.Collection("auditLogs")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "actorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "targetType", Value: 1}, {Key: "targetId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return nil, err
	}

	return &MongoAuditLogRepository{collection: collection}, nil
}

func (r *MongoAuditLogRepository) Insert(ctx context.Context, entry *domain.AuditLogEntry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *MongoAuditLogRepository) List(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	limit := int64(filter.Limit)
	cursor, err := r.collection.Find(ctx, mongoAuditFilter(filter), &options.FindOptions{
		Limit: &limit,
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]domain.AuditLogEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func mongoAuditFilter(f domain.AuditLogFilter) bson.M {
	q := bson.M{}
	if f.ActorID != nil {
		q["actorId"] = *f.ActorID
	}
	if f.TargetType != "" {
		q["targetType"] = f.TargetType
	}
	if f.TargetID != nil {
		q["targetId"] = *f.TargetID
	}
	if f.From != nil || f.To != nil {
		createdAt := bson.M{}
		if f.From != nil {
			createdAt["$gte"] = *f.From
		}
		if f.To != nil {
			createdAt["$lte"] = *f.To
		}
		q["createdAt"] = createdAt
	}
	return q
}

var _ AuditLogRepository = (*MongoAuditLogRepository)(nil)

package leadRepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"giftkit/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLeadRepo implements LeadRepository using MongoDB.
type MongoLeadRepo struct {
	coll *mongo.Collection
}

func NewMongoLeadRepo(ctx context.Context, db *mongo.Database) (LeadRepository, error) {
	repo := &MongoLeadRepo{coll: db.Collection("leads")}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

func (r *MongoLeadRepo) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var lead models.Lead
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lead %s: %w", id, err)
	}
	return &lead, nil
}

// searchFilter translates dashboard criteria into a Mongo filter.
func searchFilter(c LeadSearchCriteria) bson.M {
	filter := bson.M{}
	if c.Status != "" {
		filter["status"] = c.Status
	}
	switch {
	case c.AssigneeID != "":
		filter["assigneeId"] = c.AssigneeID
	case c.Unassigned:
		filter["assigneeId"] = bson.M{"$in": bson.A{nil, ""}}
	}
	if c.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(c.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"contact.name": pattern},
			bson.M{"contact.email": pattern},
			bson.M{"contact.phone": pattern},
			bson.M{"contact.company": pattern},
		}
	}
	return filter
}

func (r *MongoLeadRepo) Search(ctx context.Context, c LeadSearchCriteria) ([]models.Lead, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := searchFilter(c)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((c.Page - 1) * c.Limit)).
		SetLimit(int64(c.Limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search leads: %w", err)
	}
	defer cursor.Close(ctx)

	leads := []models.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, 0, fmt.Errorf("failed to decode leads: %w", err)
	}
	return leads, total, nil
}

func (r *MongoLeadRepo) CountByStatus(ctx context.Context, assigneeID string) (map[models.LeadStatus]int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	match := bson.M{}
	if assigneeID != "" {
		match["assigneeId"] = assigneeID
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("lead stats aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.LeadStatus `bson:"_id"`
		Count  int64             `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode lead stats: %w", err)
	}

	counts := make(map[models.LeadStatus]int64, len(models.LeadStatuses))
	for _, s := range models.LeadStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

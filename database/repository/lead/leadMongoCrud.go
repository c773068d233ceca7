package leadRepo

import (
	"context"
	"fmt"
	"time"

	"giftkit/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (r *MongoLeadRepo) Create(ctx context.Context, lead *models.Lead) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if lead.Notes == nil {
		lead.Notes = []models.LeadNote{}
	}
	_, err := r.coll.InsertOne(ctx, lead)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEnquiry
	}
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

func (r *MongoLeadRepo) Assign(ctx context.Context, ids []string, assigneeID string) (int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"id": bson.M{"$in": ids}}
	update := bson.M{"$set": bson.M{"assigneeId": assigneeID, "updatedAt": time.Now().UTC()}}

	result, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to assign leads: %w", err)
	}
	return result.MatchedCount, nil
}

func (r *MongoLeadRepo) UpdateStatus(ctx context.Context, id string, from, to models.LeadStatus) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update status of lead %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *MongoLeadRepo) AddNote(ctx context.Context, id string, note models.LeadNote) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"notes": note},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add note to lead %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrLeadNotFound
	}
	return nil
}

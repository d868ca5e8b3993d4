package queueRepo

import (
	"context"
	"time"

	"docqueue/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetByID returns a queue record by its ID.
func (r *mongoQueueRepo) GetByID(ctx context.Context, id string) (*models.Queue, error) {
	var queue models.Queue
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&queue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &queue, nil
}

// Save replaces the whole queue document, creating it if missing, and
// stamps LastUpdated.
func (r *mongoQueueRepo) Save(ctx context.Context, queue *models.Queue) error {
	queue.LastUpdated = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": queue.ID}, queue, opts)
	return err
}

// DeleteByID removes a queue record by ID.
func (r *mongoQueueRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all queue records.
func (r *mongoQueueRepo) List(ctx context.Context) ([]models.Queue, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var queues []models.Queue
	if err := cursor.All(ctx, &queues); err != nil {
		return nil, err
	}
	return queues, nil
}

// ExistsBySecretCode reports whether any queue already uses the code.
func (r *mongoQueueRepo) ExistsBySecretCode(ctx context.Context, code string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"secretCode": code})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

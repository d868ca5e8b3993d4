package queueRepo

import (
	"context"
	"errors"

	"docqueue/database"
	"docqueue/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no queue exists for the given id.
var ErrNotFound = errors.New("queue not found")

// QueueRepository is the persistence collaborator for Queue records.
// Save replaces the whole record; concurrent writers race and the last
// write wins, which is the accepted contract for this workload.
type QueueRepository interface {
	GetByID(ctx context.Context, id string) (*models.Queue, error)
	Save(ctx context.Context, queue *models.Queue) error
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Queue, error)
	ExistsBySecretCode(ctx context.Context, code string) (bool, error)
}

type mongoQueueRepo struct {
	coll *mongo.Collection
}

// NewMongoQueueRepo returns a QueueRepository backed by MongoDB.
func NewMongoQueueRepo() QueueRepository {
	db := database.MongoClient.Database("docqueue")
	return &mongoQueueRepo{
		coll: db.Collection("queues"),
	}
}

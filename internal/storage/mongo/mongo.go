package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lugondev/go-soflotto/internal/config"
	"github.com/lugondev/go-soflotto/internal/storage"
)

type MongoRepository struct {
	client          *mongo.Client
	database        *mongo.Database
	accounts        *mongo.Collection
	instructions    *mongo.Collection
	events          *mongo.Collection
	draws           *mongo.Collection
	accountRepo     storage.AccountRepository
	instructionRepo storage.InstructionRepository
	eventRepo       storage.EventRepository
	drawRepo        storage.DrawRepository
}

func NewMongoRepository(ctx context.Context, cfg *config.MongoDBConfig) (*MongoRepository, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)

	repo := &MongoRepository{
		client:       client,
		database:     database,
		accounts:     database.Collection("accounts"),
		instructions: database.Collection("instructions"),
		events:       database.Collection("events"),
		draws:        database.Collection("draws"),
	}

	repo.accountRepo = &mongoAccountRepository{collection: repo.accounts}
	repo.instructionRepo = &mongoInstructionRepository{collection: repo.instructions}
	repo.eventRepo = &mongoEventRepository{collection: repo.events}
	repo.drawRepo = &mongoDrawRepository{collection: repo.draws}

	if err := repo.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return repo, nil
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	indexes := []struct {
		collection *mongo.Collection
		models     []mongo.IndexModel
	}{
		{
			collection: r.accounts,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "pubkey", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "owner", Value: 1}}},
				{Keys: bson.D{{Key: "slot", Value: -1}}},
			},
		},
		{
			collection: r.instructions,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "signature", Value: 1}, {Key: "index", Value: 1}}},
				{Keys: bson.D{{Key: "instruction", Value: 1}}},
				{Keys: bson.D{{Key: "slot", Value: -1}}},
			},
		},
		{
			collection: r.events,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "receipt_id", Value: 1}}},
				{Keys: bson.D{{Key: "event_name", Value: 1}}},
				{Keys: bson.D{{Key: "slot", Value: -1}}},
			},
		},
		{
			collection: r.draws,
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "round", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "winner", Value: 1}}},
			},
		},
	}

	for _, idx := range indexes {
		if _, err := idx.collection.Indexes().CreateMany(ctx, idx.models); err != nil {
			return err
		}
	}

	return nil
}

func (r *MongoRepository) Accounts() storage.AccountRepository {
	return r.accountRepo
}


func (r *MongoRepository) Instructions() storage.InstructionRepository {
	return r.instructionRepo
}

func (r *MongoRepository) Events() storage.EventRepository {
	return r.eventRepo
}

func (r *MongoRepository) Draws() storage.DrawRepository {
	return r.drawRepo
}

func (r *MongoRepository) Close() error {
	if r.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.client.Disconnect(ctx)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

package mongo

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugondev/go-soflotto/internal/storage"
)

func findAll[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := c.FindOne(ctx, filter).Decode(&out)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

type mongoInstructionRepository struct {
	collection *mongo.Collection
}

func (r *mongoInstructionRepository) Save(ctx context.Context, instruction *storage.InstructionModel) error {
	_, err := r.collection.InsertOne(ctx, instruction)
	return err
}

func (r *mongoInstructionRepository) SaveBatch(ctx context.Context, instructions []*storage.InstructionModel) error {
	helper := storage.NewMongoBatchHelper[*storage.InstructionModel](r.collection)
	return helper.InsertMany(ctx, instructions)
}

func (r *mongoInstructionRepository) FindByID(ctx context.Context, id string) (*storage.InstructionModel, error) {
	return findOne[storage.InstructionModel](ctx, r.collection, bson.M{"_id": id})
}

func (r *mongoInstructionRepository) FindBySignature(ctx context.Context, signature string) ([]*storage.InstructionModel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "index", Value: 1}})
	return findAll[storage.InstructionModel](ctx, r.collection, bson.M{"signature": signature}, opts)
}

func (r *mongoInstructionRepository) FindByInstruction(ctx context.Context, name string, limit int, offset int) ([]*storage.InstructionModel, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "slot", Value: -1}, {Key: "index", Value: 1}})
	return findAll[storage.InstructionModel](ctx, r.collection, bson.M{"instruction": name}, opts)
}

func (r *mongoInstructionRepository) FindRecent(ctx context.Context, limit int) ([]*storage.InstructionModel, error) {
	opts := options.Find().SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "slot", Value: -1}, {Key: "index", Value: -1}})
	return findAll[storage.InstructionModel](ctx, r.collection, bson.M{}, opts)
}

type mongoEventRepository struct {
	collection *mongo.Collection
}

func (r *mongoEventRepository) SaveBatch(ctx context.Context, events []*storage.EventModel) error {
	helper := storage.NewMongoBatchHelper[*storage.EventModel](r.collection)
	return helper.InsertMany(ctx, events)
}

func (r *mongoEventRepository) FindByReceipt(ctx context.Context, receiptID string) ([]*storage.EventModel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findAll[storage.EventModel](ctx, r.collection, bson.M{"receipt_id": receiptID}, opts)
}

func (r *mongoEventRepository) FindByEventName(ctx context.Context, eventName string, limit int, offset int) ([]*storage.EventModel, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)).SetSort(bson.D{{Key: "slot", Value: -1}})
	return findAll[storage.EventModel](ctx, r.collection, bson.M{"event_name": eventName}, opts)
}

func (r *mongoEventRepository) FindBySlot(ctx context.Context, slot uint64, limit int, offset int) ([]*storage.EventModel, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)).SetSort(bson.D{{Key: "_id", Value: 1}})
	return findAll[storage.EventModel](ctx, r.collection, bson.M{"slot": slot}, opts)
}

// drawDocument stores the random number as a decimal string; BSON has no
// unsigned 64-bit integer.
type drawDocument struct {
	storage.DrawModel `bson:",inline"`
	RandomNumber      string `bson:"random_number"`
}

func (d *drawDocument) model() (*storage.DrawModel, error) {
	m := d.DrawModel
	n, err := strconv.ParseUint(d.RandomNumber, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid random number for round %d: %w", m.Round, err)
	}
	m.RandomNumber = n
	return &m, nil
}

type mongoDrawRepository struct {
	collection *mongo.Collection
}

func (r *mongoDrawRepository) Save(ctx context.Context, draw *storage.DrawModel) error {
	doc := drawDocument{DrawModel: *draw, RandomNumber: strconv.FormatUint(draw.RandomNumber, 10)}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"round": draw.Round}, doc, opts)
	return err
}

func (r *mongoDrawRepository) FindByRound(ctx context.Context, round uint64) (*storage.DrawModel, error) {
	doc, err := findOne[drawDocument](ctx, r.collection, bson.M{"round": round})
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.model()
}

func (r *mongoDrawRepository) FindByWinner(ctx context.Context, winner string, limit int, offset int) ([]*storage.DrawModel, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)).SetSort(bson.D{{Key: "round", Value: -1}})
	return r.find(ctx, bson.M{"winner": winner}, opts)
}

func (r *mongoDrawRepository) FindRecent(ctx context.Context, limit int) ([]*storage.DrawModel, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "round", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoDrawRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*storage.DrawModel, error) {
	docs, err := findAll[drawDocument](ctx, r.collection, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*storage.DrawModel, 0, len(docs))
	for _, d := range docs {
		m, err := d.model()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Package mongo implements the ability to read and write blocks to a
// MongoDB collection, one document per block.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config is the required properties to use the database.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Mongo represents the serialization implementation for reading and storing
// blocks in MongoDB. This implements the database.Storage interface.
type Mongo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// New connects to MongoDB and makes sure the block index is unique.
func New(ctx context.Context, cfg Config) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "index", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	m := Mongo{
		client:  client,
		coll:    coll,
		timeout: timeout,
	}

	return &m, nil
}

// Close disconnects from MongoDB.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	return m.client.Disconnect(ctx)
}

// Write inserts the block as a new document.
func (m *Mongo) Write(ctx context.Context, block database.Block) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if _, err := m.coll.InsertOne(ctx, block); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("block %d already exists: %w", block.Index, err)
		}
		return err
	}

	return nil
}

// GetBlock returns the block stored for the specified index.
func (m *Mongo) GetBlock(ctx context.Context, index uint64) (database.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	filter := bson.D{{Key: "index", Value: int64(index)}}
	opts := options.FindOne().SetProjection(noID())

	return m.findOne(ctx, filter, opts, database.ErrBlockNotFound)
}

// LatestBlock returns the block with the highest index.
func (m *Mongo) LatestBlock(ctx context.Context) (database.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "index", Value: -1}}).
		SetProjection(noID())

	return m.findOne(ctx, bson.D{}, opts, database.ErrChainEmpty)
}

// ReadAll returns every block sorted by index.
func (m *Mongo) ReadAll(ctx context.Context) ([]database.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "index", Value: 1}}).
		SetProjection(noID())

	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var blocks []database.Block
	if err := cur.All(ctx, &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// =============================================================================

// findOne decodes a single document, translating the driver's no documents
// error into notFound.
func (m *Mongo) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions, notFound error) (database.Block, error) {
	var block database.Block
	if err := m.coll.FindOne(ctx, filter, opts).Decode(&block); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return database.Block{}, notFound
		}
		return database.Block{}, err
	}

	return block, nil
}

// noID keeps the storage only identifier out of the decoded blocks.
func noID() bson.D {
	return bson.D{{Key: "_id", Value: 0}}
}

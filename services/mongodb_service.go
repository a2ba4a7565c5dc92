package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pnodewatch/config"
	"pnodewatch/models"
)

// NodeRecord tracks when a node was first and last observed in the directory.
// This registry is the only thing kept in MongoDB; the snapshot series itself
// lives behind the Store.
type NodeRecord struct {
	NodeID    string    `bson:"node_id"`
	Address   string    `bson:"address"`
	Pubkey    string    `bson:"pubkey,omitempty"`
	FirstSeen time.Time `bson:"first_seen"`
	LastSeen  time.Time `bson:"last_seen"`
}

// MongoDBService maintains the node first-seen registry. Optional: when
// disabled in config every method is a no-op so the poller can call it
// unconditionally.
type MongoDBService struct {
	client  *mongo.Client
	nodes   *mongo.Collection
	logger  *logrus.Logger
	enabled bool
}

func NewMongoDBService(cfg *config.Config, logger *logrus.Logger) (*MongoDBService, error) {
	if !cfg.MongoDB.Enabled {
		logger.Info("MongoDB disabled, node registry is off")
		return &MongoDBService{logger: logger}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	svc := &MongoDBService{
		client:  client,
		nodes:   client.Database(cfg.MongoDB.Database).Collection("nodes"),
		logger:  logger,
		enabled: true,
	}

	if err := svc.createIndexes(ctx); err != nil {
		logger.WithError(err).Warn("Failed to create mongodb indexes")
	}

	logger.WithField("database", cfg.MongoDB.Database).Info("MongoDB connected")
	return svc, nil
}

func (m *MongoDBService) createIndexes(ctx context.Context) error {
	_, err := m.nodes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "node_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "first_seen", Value: -1}},
		},
	})
	return err
}

func (m *MongoDBService) Enabled() bool {
	return m != nil && m.enabled
}

// RegisterNodes upserts the observed batch, setting first_seen only on
// insert and refreshing last_seen every time.
func (m *MongoDBService) RegisterNodes(ctx context.Context, nodes []models.PNode) {
	if !m.Enabled() {
		return
	}

	now := time.Now()
	for i := range nodes {
		node := &nodes[i]

		filter := bson.M{"node_id": node.ID}
		update := bson.M{
			"$set": bson.M{
				"address":   node.Address,
				"pubkey":    node.Pubkey,
				"last_seen": now,
			},
			"$setOnInsert": bson.M{
				"first_seen": now,
			},
		}

		opCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		_, err := m.nodes.UpdateOne(opCtx, filter, update, options.Update().SetUpsert(true))
		cancel()
		if err != nil {
			m.logger.WithError(err).WithField("node", node.ID).Warn("Failed to upsert node record")
		}
	}
}

// RecentlyJoined lists nodes first observed within the given window, newest
// first.
func (m *MongoDBService) RecentlyJoined(ctx context.Context, window time.Duration) ([]NodeRecord, error) {
	if !m.Enabled() {
		return nil, nil
	}

	cutoff := time.Now().Add(-window)

	cursor, err := m.nodes.Find(ctx,
		bson.M{"first_seen": bson.M{"$gte": cutoff}},
		options.Find().SetSort(bson.D{{Key: "first_seen", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent nodes: %w", err)
	}
	defer cursor.Close(ctx)

	var records []NodeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode node records: %w", err)
	}
	return records, nil
}

func (m *MongoDBService) Close() {
	if m == nil || m.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.Disconnect(ctx); err != nil {
		m.logger.WithError(err).Warn("Failed to disconnect mongodb")
	}
}

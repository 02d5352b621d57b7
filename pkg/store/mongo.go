package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/kgview/pkg/view"
)

// DefaultCollection is the MongoDB collection used for snapshots.
const DefaultCollection = "graphs"

// MongoStore keeps snapshots in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

type mongoDoc struct {
	ID        string     `bson:"_id"`
	Title     string     `bson:"title"`
	CreatedAt time.Time  `bson:"created_at"`
	Graph     string     `bson:"graph,omitempty"`
	View      string     `bson:"view,omitempty"`
	Stats     mongoStats `bson:"stats"`
}

// mongoStats mirrors view.Stats with snake_case field names.
type mongoStats struct {
	Entities         int     `bson:"entities"`
	Relations        int     `bson:"relations"`
	RelationTypes    int     `bson:"relation_types"`
	EntityClusters   int     `bson:"entity_clusters"`
	EdgeClusters     int     `bson:"edge_clusters"`
	IsolatedEntities int     `bson:"isolated_entities"`
	Components       int     `bson:"components"`
	AverageDegree    float64 `bson:"average_degree"`
	Density          float64 `bson:"density"`
}

// NewMongoStore connects to uri and uses the given database.
// The collection defaults to DefaultCollection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := NewMongoStoreFromClient(client, database, collection)
	s.owned = true
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. Close does not
// disconnect it.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, snap *Snapshot) error {
	doc := toDoc(snap)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return fromDoc(doc), nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"graph": 0, "view": 0}).
		SetLimit(int64(listLimit(limit)))

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]Summary, len(docs))
	for i, d := range docs {
		out[i] = fromDoc(d).Summary()
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toDoc(s *Snapshot) mongoDoc {
	return mongoDoc{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		Graph:     string(s.Graph),
		View:      string(s.View),
		Stats:     mongoStats(s.Stats),
	}
}

func fromDoc(d mongoDoc) *Snapshot {
	return &Snapshot{
		ID:        d.ID,
		Title:     d.Title,
		CreatedAt: d.CreatedAt.UTC(),
		Graph:     []byte(d.Graph),
		View:      []byte(d.View),
		Stats:     view.Stats(d.Stats),
	}
}

var _ Store = (*MongoStore)(nil)

// Package report persists batch summaries.
//
// A report is written once per batch run, after the last item finishes.
// FileStore keeps JSON files next to the rendered output; MongoStore inserts
// one document per batch so runs can be queried later.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/imprint/pkg/batch"
	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
)

// Store saves a finished batch summary.
type Store interface {
	Save(ctx context.Context, sum batch.Summary) error
}

// Multi saves to every store and returns the first error.
type Multi []Store

// Save implements Store.
func (m Multi) Save(ctx context.Context, sum batch.Summary) error {
	var first error
	for _, s := range m {
		if err := s.Save(ctx, sum); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// FileStore writes {dir}/{batch id}.json.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "create report dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the report directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns where the report for id is written.
func (s *FileStore) Path(id string) string { return filepath.Join(s.dir, id+".json") }

// Save implements Store.
func (s *FileStore) Save(_ context.Context, sum batch.Summary) error {
	if err := errors.ValidateName("batch id", sum.ID); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode report %s", sum.ID)
	}
	if err := document.WriteFileAtomic(s.Path(sum.ID), buf.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write report %s", sum.ID)
	}
	return nil
}

// Load reads a previously saved report.
func (s *FileStore) Load(id string) (batch.Summary, error) {
	var sum batch.Summary
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return sum, errors.Wrap(errors.ErrCodeInvalidRequest, err, "report %s not found", id)
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		return sum, errors.Wrap(errors.ErrCodeInternal, err, "decode report %s", id)
	}
	return sum, nil
}

// MongoStore inserts summaries into a collection. The batch ID is the
// document _id, so saving the same run twice fails.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// ConnectTimeout bounds the initial connection and ping.
const ConnectTimeout = 10 * time.Second

// Connect dials uri and returns a store writing to db.coll.
func Connect(ctx context.Context, uri, db, coll string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "ping mongo")
	}
	return NewMongoStore(client, db, coll), nil
}

// NewMongoStore wraps an existing client.
func NewMongoStore(client *mongo.Client, db, coll string) *MongoStore {
	return &MongoStore{client: client, coll: client.Database(db).Collection(coll)}
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, sum batch.Summary) error {
	if _, err := s.coll.InsertOne(ctx, sum); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "insert report %s", sum.ID)
	}
	return nil
}

// Recent returns up to limit summaries, newest first.
func (s *MongoStore) Recent(ctx context.Context, limit int64) ([]batch.Summary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(limit)
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "query reports")
	}
	var out []batch.Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode reports")
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mongo.go - MongoDB sink: one document per record
package sink

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/wilhasse/go-rbf/record"
)

// DefaultBatchSize is the number of documents sent per InsertMany
const DefaultBatchSize = 500

// Default database and collection when the URI has no database path
const (
	DefaultDatabase   = "rbf"
	DefaultCollection = "records"
)

// Document returns the document of rec: run id, record name, then one key
// per field named like the SQL columns, holding its typed value.
func Document(rec *record.Record, runID string) bson.D {
	doc := make(bson.D, 0, rec.Count()+2)
	doc = append(doc, bson.E{Key: RunColumn, Value: runID}, bson.E{Key: "record", Value: rec.Name})
	for _, f := range rec.Fields() {
		doc = append(doc, bson.E{Key: f.ColumnName(), Value: TypedValue(f)})
	}
	return doc
}

// Mongo buffers documents and inserts them in batches
type Mongo struct {
	insert  func(ctx context.Context, docs []any) error
	client  *mongo.Client
	runID   string
	batch   int
	buf     []any
	written int
}

// NewMongo creates a sink inserting into coll
func NewMongo(coll *mongo.Collection, runID string, batch int) *Mongo {
	return newMongo(func(ctx context.Context, docs []any) error {
		_, err := coll.InsertMany(ctx, docs)
		return err
	}, runID, batch)
}

func newMongo(insert func(context.Context, []any) error, runID string, batch int) *Mongo {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Mongo{insert: insert, runID: runID, batch: batch}
}

// OpenMongo connects to uri and creates a sink on the records collection of
// the URI database. The client is disconnected with the sink.
func OpenMongo(ctx context.Context, uri, runID string, batch int) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	m := NewMongo(client.Database(databaseFromURI(uri)).Collection(DefaultCollection), runID, batch)
	m.client = client
	return m, nil
}

// Write buffers a copy of rec, flushing full batches
func (m *Mongo) Write(ctx context.Context, rec *record.Record) error {
	m.buf = append(m.buf, Document(rec, m.runID))
	if len(m.buf) >= m.batch {
		return m.flush(ctx)
	}
	return nil
}

// Written returns the number of inserted documents
func (m *Mongo) Written() int { return m.written }

// Close inserts the pending documents
func (m *Mongo) Close(ctx context.Context) error {
	err := m.flush(ctx)
	if m.client != nil {
		if derr := m.client.Disconnect(ctx); err == nil && derr != nil {
			err = fmt.Errorf("disconnect mongo: %w", derr)
		}
	}
	return err
}

// Abort drops the pending documents. Batches already inserted stay.
func (m *Mongo) Abort(ctx context.Context) error {
	m.buf = nil
	if m.client != nil {
		if err := m.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("disconnect mongo: %w", err)
		}
	}
	return nil
}

func (m *Mongo) flush(ctx context.Context) error {
	if len(m.buf) == 0 {
		return nil
	}
	if err := m.insert(ctx, m.buf); err != nil {
		return fmt.Errorf("insert %d documents: %w", len(m.buf), err)
	}
	m.written += len(m.buf)
	m.buf = nil
	return nil
}

// databaseFromURI extracts the database path of a mongodb:// or
// mongodb+srv:// URI
func databaseFromURI(uri string) string {
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		uri = strings.TrimPrefix(uri, prefix)
	}
	if at := strings.LastIndex(uri, "@"); at != -1 {
		uri = uri[at+1:]
	}
	slash := strings.Index(uri, "/")
	if slash == -1 {
		return DefaultDatabase
	}
	db := uri[slash+1:]
	if q := strings.Index(db, "?"); q != -1 {
		db = db[:q]
	}
	if db == "" {
		return DefaultDatabase
	}
	return db
}

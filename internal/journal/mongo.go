// Package journal keeps row outcomes of migration runs in MongoDB.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/BartekS5/contentmigrate/internal/etl"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "migration_outcomes"

// MongoJournal stores one document per migrated row.
type MongoJournal struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoJournal(client *mongo.Client, database string) *MongoJournal {
	return &MongoJournal{
		coll:    client.Database(database).Collection(Collection),
		timeout: 10 * time.Second,
	}
}

// Record inserts o.
func (j *MongoJournal) Record(ctx context.Context, o etl.Outcome) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	if _, err := j.coll.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insert outcome %s:%d: %w", o.SrcTable, o.SrcUID, err)
	}
	return nil
}

// Query selects journal entries. Zero values match everything.
type Query struct {
	Migration  string
	FailedOnly bool
	Limit      int64
}

func (q Query) filter() bson.M {
	f := bson.M{}
	if q.Migration != "" {
		f["migration"] = q.Migration
	}
	if q.FailedOnly {
		f["errors.0"] = bson.M{"$exists": true}
	}
	return f
}

// Recent returns the newest matching outcomes first.
func (j *MongoJournal) Recent(ctx context.Context, q Query) ([]etl.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cursor, err := j.coll.Find(ctx, q.filter(), opts)
	if err != nil {
		return nil, fmt.Errorf("find outcomes: %w", err)
	}
	defer cursor.Close(ctx)

	var out []etl.Outcome
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode outcomes: %w", err)
	}
	return out, nil
}

package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

const (
	collectionSearchHistory = "search_history"
	collectionImageHistory  = "image_history"
)

// HistoryRepository implements ports.HistoryRepository using MongoDB.
type HistoryRepository struct {
	searches *mongo.Collection
	images   *mongo.Collection
	seq      *Sequencer
}

func NewHistoryRepository(db *mongo.Database, seq *Sequencer) *HistoryRepository {
	return &HistoryRepository{
		searches: db.Collection(collectionSearchHistory),
		images:   db.Collection(collectionImageHistory),
		seq:      seq,
	}
}

// Provider payloads are stored as JSON text so that arbitrary shapes survive
// the round trip unchanged.
type searchDoc struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Query     string    `bson:"query"`
	Results   string    `bson:"results"`
	Timestamp time.Time `bson:"timestamp"`
}

type imageDoc struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Prompt    string    `bson:"prompt"`
	ImageURL  string    `bson:"image_url"`
	Meta      string    `bson:"meta,omitempty"`
	Results   string    `bson:"results,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

func (r *HistoryRepository) InsertSearch(ctx context.Context, rec *domain.SearchRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.Next(ctx, collectionSearchHistory)
	if err != nil {
		return err
	}
	rec.ID = id

	if _, err := r.searches.InsertOne(ctx, toSearchDoc(rec)); err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListSearches(ctx context.Context, userID int64) ([]domain.SearchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.searches.Find(ctx, bson.M{"user_id": userID}, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("find search history: %w", err)
	}

	var docs []searchDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode search history: %w", err)
	}

	out := make([]domain.SearchRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromSearchDoc(d))
	}
	return out, nil
}

func (r *HistoryRepository) DeleteSearch(ctx context.Context, userID, id int64) error {
	return deleteOwned(ctx, r.searches, userID, id)
}

func (r *HistoryRepository) InsertImage(ctx context.Context, rec *domain.ImageRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.Next(ctx, collectionImageHistory)
	if err != nil {
		return err
	}
	rec.ID = id

	if _, err := r.images.InsertOne(ctx, toImageDoc(rec)); err != nil {
		return fmt.Errorf("insert image history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListImages(ctx context.Context, userID int64) ([]domain.ImageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.images.Find(ctx, bson.M{"user_id": userID}, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("find image history: %w", err)
	}

	var docs []imageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode image history: %w", err)
	}

	out := make([]domain.ImageRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromImageDoc(d))
	}
	return out, nil
}

func (r *HistoryRepository) DeleteImage(ctx context.Context, userID, id int64) error {
	return deleteOwned(ctx, r.images, userID, id)
}

// deleteOwned removes the entry only when it belongs to userID. A missing
// entry and someone else's entry look the same to the caller.
func deleteOwned(ctx context.Context, col *mongo.Collection, userID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", col.Name(), err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: -1},
		{Key: "_id", Value: -1},
	})
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func toSearchDoc(rec *domain.SearchRecord) searchDoc {
	return searchDoc{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Query:     rec.Query,
		Results:   string(rec.Results),
		Timestamp: rec.Timestamp.UTC(),
	}
}

func fromSearchDoc(d searchDoc) domain.SearchRecord {
	return domain.SearchRecord{
		ID:        d.ID,
		UserID:    d.UserID,
		Query:     d.Query,
		Results:   rawJSON(d.Results),
		Timestamp: d.Timestamp,
	}
}

func toImageDoc(rec *domain.ImageRecord) imageDoc {
	return imageDoc{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Prompt:    rec.Prompt,
		ImageURL:  rec.ImageURL,
		Meta:      string(rec.Meta),
		Results:   string(rec.Results),
		Timestamp: rec.Timestamp.UTC(),
	}
}

func fromImageDoc(d imageDoc) domain.ImageRecord {
	return domain.ImageRecord{
		ID:        d.ID,
		UserID:    d.UserID,
		Prompt:    d.Prompt,
		ImageURL:  d.ImageURL,
		Meta:      rawJSON(d.Meta),
		Results:   rawJSON(d.Results),
		Timestamp: d.Timestamp,
	}
}

// rawJSON returns s as a JSON value, or JSON null when s is empty or not
// valid JSON.
func rawJSON(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}

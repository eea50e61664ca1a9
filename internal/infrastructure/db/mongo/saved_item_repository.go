package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

const collectionSavedItems = "saved_items"

// SavedItemRepository implements ports.SavedItemRepository using MongoDB.
type SavedItemRepository struct {
	col *mongo.Collection
	seq *Sequencer
}

func NewSavedItemRepository(db *mongo.Database, seq *Sequencer) *SavedItemRepository {
	return &SavedItemRepository{col: db.Collection(collectionSavedItems), seq: seq}
}

type savedItemDoc struct {
	ID        int64     `bson:"_id"`
	OwnerID   int64     `bson:"owner_id"`
	ItemType  string    `bson:"item_type"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *SavedItemRepository) Create(ctx context.Context, item *domain.SavedItem) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.Next(ctx, collectionSavedItems)
	if err != nil {
		return err
	}
	item.ID = id
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	if _, err := r.col.InsertOne(ctx, toSavedItemDoc(item)); err != nil {
		return fmt.Errorf("insert saved item: %w", err)
	}
	return nil
}

func (r *SavedItemRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.SavedItem, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID})
}

func (r *SavedItemRepository) ListAll(ctx context.Context) ([]domain.SavedItem, error) {
	return r.list(ctx, bson.M{})
}

func (r *SavedItemRepository) list(ctx context.Context, filter bson.M) ([]domain.SavedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find saved items: %w", err)
	}

	var docs []savedItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode saved items: %w", err)
	}

	out := make([]domain.SavedItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromSavedItemDoc(d))
	}
	return out, nil
}

// Update applies the non-nil fields of patch and returns the updated item.
func (r *SavedItemRepository) Update(ctx context.Context, id int64, patch domain.SavedItemPatch) (*domain.SavedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}

	var res *mongo.SingleResult
	if set := patchSet(patch); len(set) > 0 {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		res = r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts)
	} else {
		res = r.col.FindOne(ctx, filter)
	}

	var d savedItemDoc
	if err := res.Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("update saved item: %w", err)
	}

	item := fromSavedItemDoc(d)
	return &item, nil
}

func patchSet(patch domain.SavedItemPatch) bson.M {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.ItemType != nil {
		set["item_type"] = *patch.ItemType
	}
	return set
}

func toSavedItemDoc(item *domain.SavedItem) savedItemDoc {
	return savedItemDoc{
		ID:        item.ID,
		OwnerID:   item.OwnerID,
		ItemType:  item.ItemType,
		Title:     item.Title,
		Content:   item.Content,
		Name:      item.Name,
		CreatedAt: item.CreatedAt.UTC(),
	}
}

func fromSavedItemDoc(d savedItemDoc) domain.SavedItem {
	return domain.SavedItem{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		ItemType:  d.ItemType,
		Title:     d.Title,
		Content:   d.Content,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
	}
}

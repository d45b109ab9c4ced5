package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tienda/checkout/domain"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

// GetOrCreate is an atomic find-or-insert. Two concurrent calls for the same
// user race on the upsert, not on a read-then-write, so exactly one document
// is created.
func (m *mongoCartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	now := time.Now()

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"items":      []domain.CartItem{},
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var cart domain.Cart
	if err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart); err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	return &cart, nil
}

// UpsertItem sets the line for the item's product, replacing quantity and
// denormalized price rather than accumulating.
func (m *mongoCartRepository) UpsertItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	now := time.Now()

	cart, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	itemExists := false
	for _, existing := range cart.Items {
		if existing.ProductID == item.ProductID {
			itemExists = true
			break
		}
	}

	filter := bson.M{"user_id": userID}
	if itemExists {
		update := bson.M{
			"$set": bson.M{
				"items.$[elem].quantity": item.Quantity,
				"items.$[elem].price":    item.Price,
				"items.$[elem].subtotal": item.Subtotal,
				"updated_at":             now,
			},
		}
		arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"elem.product_id": item.ProductID},
			},
		})

		if _, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters); err != nil {
			return nil, fmt.Errorf("failed to update existing item: %w", err)
		}
	} else {
		update := bson.M{
			"$push": bson.M{"items": item},
			"$set":  bson.M{"updated_at": now},
		}

		if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
			return nil, fmt.Errorf("failed to add new item: %w", err)
		}
	}

	return m.findCart(ctx, userID)
}

func (m *mongoCartRepository) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to remove item: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrCartNotFound
	}
	if result.ModifiedCount == 0 {
		return nil, ErrItemNotFound
	}

	return m.findCart(ctx, userID)
}

func (m *mongoCartRepository) SetCoupon(ctx context.Context, userID string, coupon *domain.CouponSnapshot) (*domain.Cart, error) {
	return m.setField(ctx, userID, "coupon", coupon)
}

func (m *mongoCartRepository) SetDelivery(ctx context.Context, userID string, delivery *domain.Delivery) (*domain.Cart, error) {
	return m.setField(ctx, userID, "delivery", delivery)
}

func (m *mongoCartRepository) SetPayment(ctx context.Context, userID string, payment *domain.PaymentSelection) (*domain.Cart, error) {
	return m.setField(ctx, userID, "payment", payment)
}

func (m *mongoCartRepository) setField(ctx context.Context, userID, field string, value interface{}) (*domain.Cart, error) {
	now := time.Now()

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			field:        value,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"items":      []domain.CartItem{},
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var cart domain.Cart
	if err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart); err != nil {
		return nil, fmt.Errorf("failed to set cart %s: %w", field, err)
	}

	return &cart, nil
}

func (m *mongoCartRepository) findCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

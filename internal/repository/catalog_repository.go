package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tienda/checkout/domain"
)

type mongoCatalogRepository struct {
	products *mongo.Collection
	coupons  *mongo.Collection
}

func NewMongoCatalogRepository(db *mongo.Database) CatalogRepository {
	return &mongoCatalogRepository{
		products: db.Collection("products"),
		coupons:  db.Collection("coupons"),
	}
}

func (m *mongoCatalogRepository) FindProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return m.findProduct(ctx, bson.M{"_id": id})
}

func (m *mongoCatalogRepository) FindProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	return m.findProduct(ctx, bson.M{"code": code})
}

func (m *mongoCatalogRepository) findProduct(ctx context.Context, filter bson.M) (*domain.Product, error) {
	var product domain.Product

	err := m.products.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return &product, nil
}

// FindCouponByCode looks up a coupon by its case-normalized code.
func (m *mongoCatalogRepository) FindCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon

	filter := bson.M{"code": strings.ToUpper(strings.TrimSpace(code))}
	err := m.coupons.FindOne(ctx, filter).Decode(&coupon)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}

	return &coupon, nil
}

func (m *mongoCatalogRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}

	_, err = m.coupons.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create coupon indexes: %w", err)
	}

	return nil
}

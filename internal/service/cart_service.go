package service

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tienda/checkout/domain"
	"github.com/tienda/checkout/internal/cache"
	"github.com/tienda/checkout/internal/pricing"
	"github.com/tienda/checkout/internal/repository"
)

// DeliveryCost is the flat home-delivery fee; pickup is free.
const DeliveryCost = 8.00

// CartService owns the mutable cart. Every mutation returns the refreshed
// pricing summary so the client never prices the cart itself.
type CartService struct {
	repo    repository.CartRepository
	catalog repository.CatalogRepository
	cache   cache.CartCache
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, catalog repository.CatalogRepository, cartCache cache.CartCache) *CartService {
	return &CartService{
		repo:    repo,
		catalog: catalog,
		cache:   cartCache,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, domain.Summary, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetOrCreate(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), userID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, domain.Summary{}, err
	}

	cart := v.(*domain.Cart)
	return cart, pricing.Summarize(cart), nil
}

// AddItem denormalizes the product onto the cart line; quantity is set, not
// accumulated, matching repeated add-to-cart clicks.
func (s *CartService) AddItem(ctx context.Context, userID, productID, code string, quantity int32) (domain.Summary, error) {
	var (
		product *domain.Product
		err     error
	)
	if productID != "" {
		product, err = s.catalog.FindProductByID(ctx, productID)
	} else {
		product, err = s.catalog.FindProductByCode(ctx, code)
	}
	if err != nil {
		return domain.Summary{}, err
	}

	item := domain.CartItem{
		ProductID:  product.ID,
		CategoryID: product.CategoryID,
		Code:       product.Code,
		Name:       product.Name,
		Brand:      product.Brand,
		Price:      product.Price,
		Quantity:   quantity,
		Subtotal:   pricing.LineSubtotal(product.Price, quantity),
	}

	cart, err := s.repo.UpsertItem(ctx, userID, item)
	if err != nil {
		return domain.Summary{}, err
	}

	s.invalidateCache(userID)
	return pricing.Summarize(cart), nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (domain.Summary, error) {
	cart, err := s.repo.RemoveItem(ctx, userID, productID)
	if err != nil {
		return domain.Summary{}, err
	}

	s.invalidateCache(userID)
	return pricing.Summarize(cart), nil
}

// ApplyCoupon validates the code against the catalog and snapshots it onto
// the cart; the snapshot is what the pricing engine sees from then on.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (domain.Summary, error) {
	coupon, err := s.catalog.FindCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return domain.Summary{}, ErrCouponInvalid
		}
		return domain.Summary{}, err
	}
	if !coupon.ValidAt(time.Now()) {
		return domain.Summary{}, ErrCouponInvalid
	}

	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.Summary{}, err
	}
	if coupon.MinSubtotal > 0 && pricing.Summarize(cart).Subtotal < coupon.MinSubtotal {
		return domain.Summary{}, ErrCouponMinSubtotal
	}

	updated, err := s.repo.SetCoupon(ctx, userID, coupon.Snapshot())
	if err != nil {
		return domain.Summary{}, err
	}

	s.invalidateCache(userID)
	return pricing.Summarize(updated), nil
}

func (s *CartService) SetDelivery(ctx context.Context, userID string, mode domain.DeliveryMode, address, schedule string) (domain.Summary, error) {
	var cost float64
	switch mode {
	case domain.DeliveryModeDelivery:
		cost = DeliveryCost
	case domain.DeliveryModePickup:
		cost = 0
	default:
		return domain.Summary{}, ErrInvalidDeliveryMode
	}

	cart, err := s.repo.SetDelivery(ctx, userID, &domain.Delivery{
		Mode:     mode,
		Address:  address,
		Schedule: schedule,
		Cost:     cost,
	})
	if err != nil {
		return domain.Summary{}, err
	}

	s.invalidateCache(userID)
	return pricing.Summarize(cart), nil
}

func (s *CartService) SetPayment(ctx context.Context, userID string, method domain.PaymentMethod) (domain.Summary, error) {
	switch method {
	case domain.PaymentMethodCard, domain.PaymentMethodCashOnDelivery:
	default:
		return domain.Summary{}, ErrInvalidPaymentMethod
	}

	cart, err := s.repo.SetPayment(ctx, userID, &domain.PaymentSelection{Method: method})
	if err != nil {
		return domain.Summary{}, err
	}

	s.invalidateCache(userID)
	return pricing.Summarize(cart), nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

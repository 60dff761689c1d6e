package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Session is the per-request handle on one guest's cart. Each operation
// reads the cart once, validates, mutates and writes it back once.
type Session struct {
	GuestID string
	Cart    repository.CartStore
}

type CartView struct {
	Items   []domain.CartLine `json:"items"`
	Summary domain.Summary    `json:"summary"`
}

type CartService struct {
	catalog catalog.Catalog
	views   cache.ViewCache
	clock   clock.Clock
	logger  *zap.Logger
}

func NewCartService(c catalog.Catalog, views cache.ViewCache, clk clock.Clock, l *zap.Logger) *CartService {
	if views == nil {
		views = cache.Nop{}
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &CartService{
		catalog: c,
		views:   views,
		clock:   clk,
		logger:  l,
	}
}

// AddItem adds quantity units of a product (one when rawQuantity is empty)
// and returns the total unit count of the cart.
func (s *CartService) AddItem(ctx context.Context, sess Session, rawProductID, rawQuantity string) (int, error) {
	productID, err := parseProductID(rawProductID)
	if err != nil {
		return 0, err
	}
	quantity := 1
	if strings.TrimSpace(rawQuantity) != "" {
		if quantity, err = parseQuantity(rawQuantity); err != nil {
			return 0, err
		}
	}

	product, err := s.lookup(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !product.InStock() {
		return 0, &OutOfStockError{ProductID: productID}
	}

	items := sess.Cart.Load(ctx)
	if i := indexOf(items, productID); i >= 0 {
		next := items[i].Quantity + quantity
		if err := checkQuantity(product, next); err != nil {
			return 0, err
		}
		items[i].Quantity = next
	} else {
		if err := checkQuantity(product, quantity); err != nil {
			return 0, err
		}
		if err := checkCapacity(items); err != nil {
			return 0, err
		}
		items = append(items, domain.LineItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   s.clock.Now(),
		})
	}

	if err := s.save(ctx, sess, items); err != nil {
		return 0, err
	}
	s.invalidate(ctx, cache.CartViewKey(sess.GuestID), cache.ProductViewKey(productID))

	return domain.TotalQuantity(items), nil
}

// UpdateQuantity sets the quantity of a product, creating the line item
// when the cart does not hold it yet.
func (s *CartService) UpdateQuantity(ctx context.Context, sess Session, rawProductID, rawQuantity string) error {
	productID, err := parseProductID(rawProductID)
	if err != nil {
		return err
	}
	quantity, err := parseQuantity(rawQuantity)
	if err != nil {
		return err
	}

	product, err := s.lookup(ctx, productID)
	if err != nil {
		return err
	}
	if err := checkQuantity(product, quantity); err != nil {
		return err
	}

	items := sess.Cart.Load(ctx)
	if i := indexOf(items, productID); i >= 0 {
		items[i].Quantity = quantity
	} else {
		if err := checkCapacity(items); err != nil {
			return err
		}
		items = append(items, domain.LineItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   s.clock.Now(),
		})
	}

	if err := s.save(ctx, sess, items); err != nil {
		return err
	}
	s.invalidate(ctx, cache.CartViewKey(sess.GuestID))
	return nil
}

// RemoveItem drops a product from the cart. Removing a product the cart
// does not hold succeeds without changing anything.
func (s *CartService) RemoveItem(ctx context.Context, sess Session, rawProductID string) error {
	productID, err := parseProductID(rawProductID)
	if err != nil {
		return err
	}

	items := sess.Cart.Load(ctx)
	kept := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return nil
	}

	if err := s.save(ctx, sess, kept); err != nil {
		return err
	}
	s.invalidate(ctx, cache.CartViewKey(sess.GuestID))
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, sess Session) error {
	if err := sess.Cart.Clear(ctx); err != nil {
		logger.FromContext(ctx, s.logger).Error("cart clear failed", zap.Error(err))
		return &PersistenceError{Op: "clear", Err: err}
	}

	s.invalidate(ctx, cache.CartViewKey(sess.GuestID))
	return nil
}

// GetCartWithProducts joins the stored items with the live catalog.
// Quantities are clamped to current stock for display only.
func (s *CartService) GetCartWithProducts(ctx context.Context, sess Session) ([]domain.CartLine, error) {
	view, err := s.GetCartView(ctx, sess)
	if err != nil {
		return nil, err
	}
	return view.Items, nil
}

func (s *CartService) GetSummary(ctx context.Context, sess Session) (domain.Summary, error) {
	view, err := s.GetCartView(ctx, sess)
	if err != nil {
		return domain.Summary{}, err
	}
	return view.Summary, nil
}

// GetCartView returns the joined lines and their summary from a single
// read of the cart and the catalog.
func (s *CartService) GetCartView(ctx context.Context, sess Session) (CartView, error) {
	items := sess.Cart.Load(ctx)

	products, err := s.catalog.GetAllProducts(ctx)
	if err != nil {
		return CartView{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	byID := catalog.Index(products)

	lines := make([]domain.CartLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		line := domain.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
		}
		if p, ok := byID[item.ProductID]; ok {
			line.Quantity = max(min(item.Quantity, p.Stock), 0)
			line.Product = &p
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		lines = append(lines, line)
	}

	return CartView{
		Items: lines,
		Summary: domain.Summary{
			TotalItems:  domain.TotalQuantity(items),
			TotalValue:  total,
			UniqueItems: len(items),
		},
	}, nil
}

func (s *CartService) lookup(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return nil, &NotFoundError{ProductID: productID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %d: %w", productID, err)
	}
	return product, nil
}

func (s *CartService) save(ctx context.Context, sess Session, items []domain.LineItem) error {
	if err := sess.Cart.Save(ctx, items); err != nil {
		logger.FromContext(ctx, s.logger).Error("cart save failed",
			zap.Int("items", len(items)),
			zap.Error(err))
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

func (s *CartService) invalidate(ctx context.Context, keys ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.views.Invalidate(ctx, keys...); err != nil {
		logger.FromContext(ctx, s.logger).Warn("view cache invalidate failed",
			zap.Strings("keys", keys),
			zap.Error(err))
	}
}

func indexOf(items []domain.LineItem, productID int64) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// checkQuantity rejects a resulting line quantity above current stock or
// above the per-item limit.
func checkQuantity(product *domain.Product, quantity int) error {
	if quantity > product.Stock {
		return &StockExceededError{ProductID: product.ID, Available: product.Stock}
	}
	if quantity > domain.MaxQuantityPerItem {
		return &ValidationError{
			Field:  "quantity",
			Reason: fmt.Sprintf("at most %d per product", domain.MaxQuantityPerItem),
		}
	}
	return nil
}

func checkCapacity(items []domain.LineItem) error {
	if len(items) >= domain.MaxCartItems {
		return &ValidationError{
			Field:  "cart",
			Reason: fmt.Sprintf("cannot hold more than %d products", domain.MaxCartItems),
		}
	}
	return nil
}

func parseProductID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: "productId", Reason: "is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: "productId", Reason: "must be a positive integer"}
	}
	return id, nil
}

func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: "quantity", Reason: "is required"}
	}
	q, err := strconv.Atoi(raw)
	if err != nil || q <= 0 {
		return 0, &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	return q, nil
}

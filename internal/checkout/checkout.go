// Package checkout prices a guest cart for the order review page and turns
// it into a confirmation once contact details are supplied.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const EventConfirmed = "checkout.confirmed"

var TaxRate = decimal.RequireFromString("0.08")

// Publisher delivers confirmation events. Failures never fail an order.
type Publisher interface {
	Publish(ctx context.Context, event publisher.Event) error
}

type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Weight    float64         `json:"weight"`
}

type Summary struct {
	Lines        []Line            `json:"lines"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	TotalWeight  float64           `json:"totalWeight"`
	Shipping     shipping.Estimate `json:"shipping"`
	Method       shipping.Method   `json:"method"`
	SelectedRate shipping.Rate     `json:"selectedRate"`
	Tax          decimal.Decimal   `json:"tax"`
	Total        decimal.Decimal   `json:"total"`
}

type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Confirmation struct {
	OrderRef string  `json:"orderRef"`
	Message  string  `json:"message"`
	Summary  Summary `json:"summary"`
}

type Flow struct {
	cart      *service.CartService
	engine    *shipping.Engine
	publisher Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

func NewFlow(cart *service.CartService, engine *shipping.Engine, pub Publisher, clk clock.Clock, l *zap.Logger) *Flow {
	if pub == nil {
		pub = publisher.Nop{}
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Flow{
		cart:      cart,
		engine:    engine,
		publisher: pub,
		clock:     clk,
		logger:    l,
	}
}

// Prepare prices the cart for review. Discontinued products and lines with
// no stock left are not billed. An empty method selects standard shipping.
func (f *Flow) Prepare(ctx context.Context, sess service.Session, rawMethod string) (*Summary, error) {
	method, err := ParseMethod(rawMethod)
	if err != nil {
		return nil, err
	}

	view, err := f.cart.GetCartView(ctx, sess)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(view.Items))
	subtotal := decimal.Zero
	weight := decimal.Zero
	for _, item := range view.Items {
		if item.Product == nil || item.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		lineWeight := decimal.NewFromFloat(item.Product.Weight).Mul(qty)
		line := Line{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Product.Price,
			Subtotal:  item.Product.Price.Mul(qty),
			Weight:    lineWeight.InexactFloat64(),
		}
		subtotal = subtotal.Add(line.Subtotal)
		weight = weight.Add(lineWeight)
		lines = append(lines, line)
	}

	estimate := f.engine.Estimate(subtotal, weight.InexactFloat64())
	rate, _ := estimate.Rate(method)
	tax := subtotal.Mul(TaxRate)

	return &Summary{
		Lines:        lines,
		Subtotal:     subtotal,
		TotalWeight:  estimate.TotalWeight,
		Shipping:     estimate,
		Method:       method,
		SelectedRate: rate,
		Tax:          tax,
		Total:        subtotal.Add(rate.Cost).Add(tax),
	}, nil
}

// PlaceOrder validates the contact details, prices the cart and returns the
// confirmation. No payment is taken and the cart is left untouched.
func (f *Flow) PlaceOrder(ctx context.Context, sess service.Session, contact Contact, rawMethod string) (*Confirmation, error) {
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	summary, err := f.Prepare(ctx, sess, rawMethod)
	if err != nil {
		return nil, err
	}
	if len(summary.Lines) == 0 {
		return nil, &service.ValidationError{Field: "cart", Reason: "is empty"}
	}

	conf := &Confirmation{
		OrderRef: uuid.NewString(),
		Message:  FormatConfirmation(contact.FirstName, summary),
		Summary:  *summary,
	}

	log := logger.FromContext(ctx, f.logger)
	log.Info("order confirmed",
		zap.String("order_ref", conf.OrderRef),
		zap.Int("lines", len(summary.Lines)),
		zap.String("total", summary.Total.String()),
		zap.String("method", string(summary.Method)))

	f.publish(ctx, sess.GuestID, conf)
	return conf, nil
}

func (f *Flow) publish(ctx context.Context, guestID string, conf *Confirmation) {
	payload, err := json.Marshal(confirmedEvent{
		OrderRef:          conf.OrderRef,
		GuestID:           guestID,
		Lines:             conf.Summary.Lines,
		Subtotal:          conf.Summary.Subtotal,
		ShippingMethod:    conf.Summary.Method,
		ShippingCost:      conf.Summary.SelectedRate.Cost,
		Tax:               conf.Summary.Tax,
		Total:             conf.Summary.Total,
		EstimatedDelivery: conf.Summary.SelectedRate.EstimatedDelivery,
		ConfirmedAt:       f.clock.Now().UTC(),
	})
	if err != nil {
		logger.FromContext(ctx, f.logger).Error("failed to encode confirmation event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err = f.publisher.Publish(ctx, publisher.Event{
		AggregateID: guestID,
		EventType:   EventConfirmed,
		Payload:     payload,
	})
	if err != nil {
		logger.FromContext(ctx, f.logger).Warn("failed to publish confirmation",
			zap.String("order_ref", conf.OrderRef),
			zap.Error(err))
	}
}

type confirmedEvent struct {
	OrderRef          string          `json:"order_ref"`
	GuestID           string          `json:"guest_id"`
	Lines             []Line          `json:"lines"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ShippingMethod    shipping.Method `json:"shipping_method"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	Tax               decimal.Decimal `json:"tax"`
	Total             decimal.Decimal `json:"total"`
	EstimatedDelivery shipping.Date   `json:"estimated_delivery"`
	ConfirmedAt       time.Time       `json:"confirmed_at"`
}

// Validate requires every contact field.
func (c Contact) Validate() error {
	fields := []struct{ name, value string }{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"email", c.Email},
		{"phone", c.Phone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &service.ValidationError{Field: f.name, Reason: "is required"}
		}
	}
	return nil
}

func ParseMethod(raw string) (shipping.Method, error) {
	switch shipping.Method(strings.ToLower(strings.TrimSpace(raw))) {
	case "", shipping.Standard:
		return shipping.Standard, nil
	case shipping.Express:
		return shipping.Express, nil
	default:
		return "", &service.ValidationError{Field: "shippingMethod", Reason: fmt.Sprintf("unknown method %q", raw)}
	}
}

// FormatConfirmation renders the message shown after an order is placed.
func FormatConfirmation(firstName string, s *Summary) string {
	shippingLine := "FREE"
	if !s.SelectedRate.Cost.IsZero() {
		shippingLine = fmt.Sprintf("%s (%s)", shipping.FormatCurrency(s.SelectedRate.Cost), s.SelectedRate.DeliveryTime)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order, %s!\n", strings.TrimSpace(firstName))
	fmt.Fprintf(&b, "Total: %s\n", shipping.FormatCurrency(s.Total))
	fmt.Fprintf(&b, "Shipping: %s\n", shippingLine)
	fmt.Fprintf(&b, "Delivery Estimate: %s", s.SelectedRate.EstimatedDelivery)
	return b.String()
}

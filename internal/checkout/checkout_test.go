package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Friday morning.
var testNow = time.Date(2026, 3, 6, 10, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []publisher.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e publisher.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Headphones", Price: decimal.NewFromInt(45000), Weight: 0.35, Stock: 5},
		{ID: 2, Name: "Mouse", Price: decimal.NewFromInt(8500), Weight: 0.12, Stock: 30},
		{ID: 3, Name: "USB-C Hub", Price: decimal.NewFromInt(15000), Weight: 0.15, Stock: 0},
		{ID: 4, Name: "Speakers", Price: decimal.NewFromInt(18000), Weight: 4.8, Stock: 2},
	}
}

type fixture struct {
	flow  *Flow
	cart  *service.CartService
	store *repository.MemoryStore
	pub   *recordingPublisher
	sess  service.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.Fixed(testNow)
	store := repository.NewMemoryStore(clk)
	cart := service.NewCartService(catalog.NewStatic(testProducts()), nil, clk, nil)
	pub := &recordingPublisher{}
	return &fixture{
		flow:  NewFlow(cart, shipping.NewEngine(clk), pub, clk, nil),
		cart:  cart,
		store: store,
		pub:   pub,
		sess:  service.Session{GuestID: "guest-1", Cart: store},
	}
}

func (f *fixture) add(t *testing.T, productID, quantity string) {
	t.Helper()
	_, err := f.cart.AddItem(context.Background(), f.sess, productID, quantity)
	require.NoError(t, err)
}

var ada = Contact{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "08030000000"}

func TestPrepare_EmptyCart(t *testing.T) {
	f := newFixture(t)

	s, err := f.flow.Prepare(context.Background(), f.sess, "")
	require.NoError(t, err)

	assert.Empty(t, s.Lines)
	assert.True(t, s.Subtotal.IsZero())
	assert.Equal(t, shipping.Standard, s.Method)
	assert.True(t, s.SelectedRate.Cost.Equal(decimal.NewFromInt(1500)))
}

func TestPrepare_TotalsWithStandardShipping(t *testing.T) {
	f := newFixture(t)
	f.add(t, "2", "2")

	s, err := f.flow.Prepare(context.Background(), f.sess, "standard")
	require.NoError(t, err)

	require.Len(t, s.Lines, 1)
	assert.Equal(t, "Mouse", s.Lines[0].Name)
	assert.True(t, s.Lines[0].Subtotal.Equal(decimal.NewFromInt(17000)))
	assert.InDelta(t, 0.24, s.Lines[0].Weight, 1e-9)

	assert.True(t, s.Subtotal.Equal(decimal.NewFromInt(17000)))
	assert.InDelta(t, 0.24, s.TotalWeight, 1e-9)
	assert.True(t, s.Tax.Equal(decimal.NewFromInt(1360)))
	assert.True(t, s.SelectedRate.Cost.Equal(decimal.NewFromInt(1500)))
	assert.True(t, s.Total.Equal(decimal.NewFromInt(19860)))
	assert.False(t, s.Shipping.FreeShippingEligible)
}

func TestPrepare_ExpressCostsMore(t *testing.T) {
	f := newFixture(t)
	f.add(t, "2", "2")

	s, err := f.flow.Prepare(context.Background(), f.sess, " Express ")
	require.NoError(t, err)

	assert.Equal(t, shipping.Express, s.Method)
	assert.True(t, s.SelectedRate.Cost.Equal(decimal.NewFromInt(2250)))
	assert.True(t, s.Total.Equal(decimal.NewFromInt(20610)))
}

func TestPrepare_WeightDrivesShipping(t *testing.T) {
	f := newFixture(t)
	f.add(t, "4", "1")

	s, err := f.flow.Prepare(context.Background(), f.sess, "")
	require.NoError(t, err)

	// 4.8 kg: base plus eight half-kilogram steps.
	assert.True(t, s.SelectedRate.Cost.Equal(decimal.NewFromInt(5500)))
}

func TestPrepare_FreeShippingAboveThreshold(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1", "1")
	f.add(t, "2", "1")

	s, err := f.flow.Prepare(context.Background(), f.sess, "express")
	require.NoError(t, err)

	assert.True(t, s.Shipping.FreeShippingEligible)
	assert.True(t, s.SelectedRate.Cost.IsZero())
	assert.True(t, s.Total.Equal(decimal.NewFromInt(57780)))
}

func TestPrepare_SkipsUnbillableLines(t *testing.T) {
	f := newFixture(t)
	f.store.SetRaw(`[
		{"productId":1,"quantity":8,"addedAt":"2026-03-01T09:00:00Z"},
		{"productId":3,"quantity":1,"addedAt":"2026-03-01T09:00:00Z"},
		{"productId":99,"quantity":2,"addedAt":"2026-03-01T09:00:00Z"}
	]`)

	s, err := f.flow.Prepare(context.Background(), f.sess, "")
	require.NoError(t, err)

	require.Len(t, s.Lines, 1)
	assert.Equal(t, int64(1), s.Lines[0].ProductID)
	assert.Equal(t, 5, s.Lines[0].Quantity, "quantity is clamped to stock")
	assert.True(t, s.Subtotal.Equal(decimal.NewFromInt(225000)))
}

func TestPrepare_UnknownMethod(t *testing.T) {
	f := newFixture(t)

	_, err := f.flow.Prepare(context.Background(), f.sess, "overnight")

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shippingMethod", verr.Field)
}

func TestPlaceOrder_RequiresContactFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(c *Contact)
		field string
	}{
		{"first name", func(c *Contact) { c.FirstName = "" }, "firstName"},
		{"last name", func(c *Contact) { c.LastName = "  " }, "lastName"},
		{"email", func(c *Contact) { c.Email = "" }, "email"},
		{"phone", func(c *Contact) { c.Phone = "" }, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.add(t, "2", "1")
			contact := ada
			tt.edit(&contact)

			_, err := f.flow.PlaceOrder(context.Background(), f.sess, contact, "")

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, f.pub.events)
		})
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.flow.PlaceOrder(context.Background(), f.sess, ada, "")

	assert.ErrorIs(t, err, service.ErrValidation)
	assert.ErrorContains(t, err, "cart: is empty")
}

func TestPlaceOrder_PublishesConfirmation(t *testing.T) {
	f := newFixture(t)
	f.add(t, "2", "2")

	conf, err := f.flow.PlaceOrder(context.Background(), f.sess, ada, "")
	require.NoError(t, err)
	assert.NotEmpty(t, conf.OrderRef)

	require.Len(t, f.pub.events, 1)
	event := f.pub.events[0]
	assert.Equal(t, "guest-1", event.AggregateID)
	assert.Equal(t, EventConfirmed, event.EventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, conf.OrderRef, payload["order_ref"])
	assert.Equal(t, "guest-1", payload["guest_id"])
	assert.Equal(t, "standard", payload["shipping_method"])
	assert.Equal(t, "19860", payload["total"])
	assert.Equal(t, "2026-03-12", payload["estimated_delivery"])
}

func TestPlaceOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	f.add(t, "2", "1")

	conf, err := f.flow.PlaceOrder(context.Background(), f.sess, ada, "")
	require.NoError(t, err)
	assert.NotEmpty(t, conf.Message)
}

func TestPlaceOrder_LeavesCartIntact(t *testing.T) {
	f := newFixture(t)
	f.add(t, "2", "3")

	_, err := f.flow.PlaceOrder(context.Background(), f.sess, ada, "")
	require.NoError(t, err)

	assert.Len(t, f.store.Load(context.Background()), 1)
}

func TestFormatConfirmation(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name   string
		adds   [][2]string
		method string
	}{
		{"confirmation_standard", [][2]string{{"2", "2"}}, "standard"},
		{"confirmation_express", [][2]string{{"2", "2"}}, "express"},
		{"confirmation_free", [][2]string{{"1", "1"}, {"2", "1"}}, "standard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, a := range tt.adds {
				f.add(t, a[0], a[1])
			}

			conf, err := f.flow.PlaceOrder(context.Background(), f.sess, ada, tt.method)
			require.NoError(t, err)

			g.Assert(t, tt.name, []byte(conf.Message))
		})
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, shipping.Standard, m)

	m, err = ParseMethod("EXPRESS")
	require.NoError(t, err)
	assert.Equal(t, shipping.Express, m)

	_, err = ParseMethod("drone")
	assert.ErrorIs(t, err, service.ErrValidation)
}

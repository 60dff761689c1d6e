package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

const (
	CartCookieName = "guest_cart"
	CartCookieTTL  = 30 * 24 * time.Hour

	// DefaultMaxCookieBytes keeps the encoded value under the 4KB browsers accept per cookie.
	DefaultMaxCookieBytes = 4000
)

type CookieOptions struct {
	Name     string
	Path     string
	MaxAge   time.Duration
	Secure   bool
	MaxBytes int
}

// DefaultCookieOptions returns the guest_cart cookie attributes. Secure is
// on only for production deployments.
func DefaultCookieOptions(production bool) CookieOptions {
	return CookieOptions{
		Name:     CartCookieName,
		Path:     "/",
		MaxAge:   CartCookieTTL,
		Secure:   production,
		MaxBytes: DefaultMaxCookieBytes,
	}
}

// CookieStoreFactory binds cookie stores to individual requests.
type CookieStoreFactory struct {
	opts   CookieOptions
	clock  clock.Clock
	logger *zap.Logger
}

func NewCookieStoreFactory(opts CookieOptions, clk clock.Clock, logger *zap.Logger) *CookieStoreFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CookieStoreFactory{opts: opts, clock: clk, logger: logger}
}

func (f *CookieStoreFactory) For(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{
		w:      w,
		r:      r,
		opts:   f.opts,
		clock:  f.clock,
		logger: f.logger,
	}
}

// CookieStore keeps a guest cart in the guest_cart cookie of one request.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	opts   CookieOptions
	clock  clock.Clock
	logger *zap.Logger

	// written holds the value set during this request, so later loads see it.
	written *string
}

func (s *CookieStore) Load(_ context.Context) []domain.LineItem {
	raw, ok := s.raw()
	if !ok {
		return []domain.LineItem{}
	}

	items, err := DecodeCart(raw)
	if err != nil {
		s.logger.Warn("invalid cart cookie, resetting", zap.Error(err))
	}
	return items
}

func (s *CookieStore) raw() (string, bool) {
	if s.written != nil {
		return *s.written, true
	}

	c, err := s.r.Cookie(s.opts.Name)
	if err != nil {
		return "", false
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		s.logger.Warn("undecodable cart cookie, resetting", zap.Error(err))
		return "", false
	}
	return raw, true
}

func (s *CookieStore) Save(_ context.Context, items []domain.LineItem) error {
	raw, err := EncodeCart(items, s.clock.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	value := url.QueryEscape(raw)
	if s.opts.MaxBytes > 0 && len(value) > s.opts.MaxBytes {
		return fmt.Errorf("%w: %d bytes", ErrCookieTooLarge, len(value))
	}

	cookie := s.cookie(value, int(s.opts.MaxAge.Seconds()))
	if err := cookie.Valid(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	http.SetCookie(s.w, cookie)
	s.written = &raw
	return nil
}

func (s *CookieStore) Clear(_ context.Context) error {
	http.SetCookie(s.w, s.cookie("", -1))
	empty := ""
	s.written = &empty
	return nil
}

func (s *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.Name,
		Value:    value,
		Path:     s.opts.Path,
		MaxAge:   maxAge,
		Secure:   s.opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

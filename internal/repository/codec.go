package repository

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type storedItem struct {
	ProductID *float64 `json:"productId"`
	Quantity  *float64 `json:"quantity"`
	AddedAt   string   `json:"addedAt"`
}

// DecodeCart parses a stored cart blob. Items failing validation are dropped
// and the result is capped at domain.MaxCartItems. The error reports a blob
// that is not a JSON array; the returned slice is empty in that case.
func DecodeCart(raw string) ([]domain.LineItem, error) {
	if raw == "" {
		return []domain.LineItem{}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return []domain.LineItem{}, fmt.Errorf("invalid cart structure: %w", err)
	}

	items := make([]domain.LineItem, 0, len(elems))
	for _, elem := range elems {
		item, ok := decodeItem(elem)
		if !ok {
			continue
		}
		items = append(items, item)
		if len(items) == domain.MaxCartItems {
			break
		}
	}
	return items, nil
}

func decodeItem(elem json.RawMessage) (domain.LineItem, bool) {
	var s storedItem
	if err := json.Unmarshal(elem, &s); err != nil {
		return domain.LineItem{}, false
	}
	if s.ProductID == nil || s.Quantity == nil {
		return domain.LineItem{}, false
	}
	if !isWhole(*s.ProductID) || !isWhole(*s.Quantity) {
		return domain.LineItem{}, false
	}

	item := domain.LineItem{
		ProductID: int64(*s.ProductID),
		Quantity:  int(*s.Quantity),
	}
	if !item.Valid() {
		return domain.LineItem{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s.AddedAt); err == nil {
		item.AddedAt = t
	}
	return item, true
}

func isWhole(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// EncodeCart serializes items for storage: truncated to domain.MaxCartItems,
// out-of-bound items dropped and missing AddedAt filled with now.
func EncodeCart(items []domain.LineItem, now time.Time) (string, error) {
	out := make([]domain.LineItem, 0, min(len(items), domain.MaxCartItems))
	for _, item := range items {
		if len(out) == domain.MaxCartItems {
			break
		}
		if !item.Valid() {
			continue
		}
		if item.AddedAt.IsZero() {
			item.AddedAt = now
		}
		item.AddedAt = item.AddedAt.UTC().Truncate(time.Millisecond)
		out = append(out, item)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal cart failed: %w", err)
	}
	return string(data), nil
}

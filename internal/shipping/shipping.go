// Package shipping computes weight-tiered shipping rates, free-shipping
// eligibility and business-day delivery dates. Everything here is a pure
// function of its inputs and the supplied instant.
package shipping

import (
	"time"

	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/shopspring/decimal"
)

type Method string

const (
	Standard Method = "standard"
	Express  Method = "express"
)

const (
	standardBusinessDays = 4
	expressBusinessDays  = 2
)

var (
	FreeShippingThreshold = decimal.NewFromInt(50000)

	// BaseRate covers the first kilogram; StepRate is added for every
	// started half kilogram above it.
	BaseRate = decimal.NewFromInt(1500)
	StepRate = decimal.NewFromInt(500)

	expressMultiplier = decimal.RequireFromString("1.5")
	baseWeight        = decimal.NewFromInt(1)
	stepWeight        = decimal.RequireFromString("0.5")
)

type Rate struct {
	Method            Method          `json:"method"`
	Cost              decimal.Decimal `json:"cost"`
	DeliveryTime      string          `json:"deliveryTime"`
	EstimatedDelivery Date            `json:"estimatedDelivery"`
}

type Estimate struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	TotalWeight           float64         `json:"totalWeight"`
	Rates                 []Rate          `json:"rates"`
	FreeShippingEligible  bool            `json:"freeShippingEligible"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
}

// Rate returns the rate for a method.
func (e Estimate) Rate(m Method) (Rate, bool) {
	for _, r := range e.Rates {
		if r.Method == m {
			return r, true
		}
	}
	return Rate{}, false
}

// Calculate estimates shipping for an order as of now. totalWeight is in
// kilograms and must be finite.
func Calculate(subtotal decimal.Decimal, totalWeight float64, now time.Time) Estimate {
	eligible := subtotal.GreaterThanOrEqual(FreeShippingThreshold)

	standardCost := decimal.Zero
	expressCost := decimal.Zero
	if !eligible {
		standardCost = WeightCost(totalWeight)
		expressCost = standardCost.Mul(expressMultiplier)
	}

	return Estimate{
		Subtotal:    subtotal,
		TotalWeight: totalWeight,
		Rates: []Rate{
			{
				Method:            Standard,
				Cost:              standardCost,
				DeliveryTime:      "3-5 business days",
				EstimatedDelivery: NewDate(AddBusinessDays(now, standardBusinessDays)),
			},
			{
				Method:            Express,
				Cost:              expressCost,
				DeliveryTime:      "1-2 business days",
				EstimatedDelivery: NewDate(AddBusinessDays(now, expressBusinessDays)),
			},
		},
		FreeShippingEligible:  eligible,
		FreeShippingThreshold: FreeShippingThreshold,
	}
}

// WeightCost is the standard cost for a parcel before free-shipping rules.
func WeightCost(totalWeight float64) decimal.Decimal {
	w := decimal.NewFromFloat(totalWeight)
	if w.LessThanOrEqual(baseWeight) {
		return BaseRate
	}
	steps := w.Sub(baseWeight).Div(stepWeight).Ceil()
	return BaseRate.Add(steps.Mul(StepRate))
}

// AddBusinessDays moves n weekdays forward from t. Saturdays and Sundays
// are skipped, so the result is never a weekend.
func AddBusinessDays(t time.Time, n int) time.Time {
	d := t
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}

// Engine binds Calculate to a clock.
type Engine struct {
	clock clock.Clock
}

func NewEngine(clk clock.Clock) *Engine {
	return &Engine{clock: clk}
}

func (e *Engine) Estimate(subtotal decimal.Decimal, totalWeight float64) Estimate {
	return Calculate(subtotal, totalWeight, e.clock.Now())
}

type Summary struct {
	CheapestRate          Rate            `json:"cheapestRate"`
	FreeShippingEligible  bool            `json:"freeShippingEligible"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
	TotalWeight           float64         `json:"totalWeight"`
}

// Summarize picks the cheapest rate; on equal cost the later rate wins,
// which favours express when shipping is free.
func Summarize(e Estimate) Summary {
	var cheapest Rate
	for i, r := range e.Rates {
		if i == 0 || !cheapest.Cost.LessThan(r.Cost) {
			cheapest = r
		}
	}
	return Summary{
		CheapestRate:          cheapest,
		FreeShippingEligible:  e.FreeShippingEligible,
		FreeShippingThreshold: e.FreeShippingThreshold,
		TotalWeight:           e.TotalWeight,
	}
}

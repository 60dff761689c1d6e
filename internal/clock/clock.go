// Package clock provides the wall clock used for timestamps and delivery dates.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type system struct{}

func (system) Now() time.Time { return time.Now() }

// System returns the process wall clock.
func System() Clock { return system{} }

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Package clock abstracts time for services whose behavior depends on
// wall-clock now (hold expiry, featured windows). Tests substitute a fixed
// implementation.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func System() Clock { return systemClock{} }

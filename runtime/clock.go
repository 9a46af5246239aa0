package runtime

import "time"

// Clock abstracts timer scheduling so the reconciliation delay can be driven
// by a manual clock in tests instead of wall time.
type Clock interface {
	AfterFunc(d time.Duration, fn func())
}

type WallClock struct{}

func (WallClock) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

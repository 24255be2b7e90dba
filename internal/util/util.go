package util

import "time"

// Clock is injected wherever a decision compares stored timestamps with the
// current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func RealClock() Clock { return realClock{} }

func PtrTo[T any](v T) *T {
	return &v
}

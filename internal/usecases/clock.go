package usecases

import "time"

// Clock supplies the current time. Usecases never read the wall clock directly.
type Clock func() time.Time

// SystemClock is the production clock, in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

func (c Clock) now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c().UTC()
}

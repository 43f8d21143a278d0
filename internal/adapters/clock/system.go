// Package clock provides the default Clock implementation. It is the one
// ambient concern in tokenforge with no corresponding third-party library
// anywhere in the retrieval pack (every example repo that needs wall-clock
// time calls time.Now() directly) — wrapping it behind usecases.Clock exists
// only so entities never call time.Now() themselves (spec §3, §6).
package clock

import "time"

// System is the production Clock: time.Now(), nothing more.
type System struct{}

// New creates a System clock.
func New() System { return System{} }

// Now returns the current wall-clock time.
func (System) Now() time.Time { return time.Now() }

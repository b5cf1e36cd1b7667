// File: queue/equal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package queue

import "github.com/kienpl96/kannel/api"

// IdentityEqual compares two events by identity (==). This is the
// equality DeleteEqual should use for events produced by a Cloner: the
// duplicate enqueued by a firing timer is compared against itself by
// reference, exactly as gwlib's list_delete_equal relies on pointer
// identity rather than deep content equality.
func IdentityEqual(a, b api.Event) bool {
	return a == b
}

// File: api/event.go
// Author: momentics <momentics@gmail.com>
//
// Opaque event contract shared by queue and timer.

package api

// Event is an opaque value produced onto an EventQueue. Neither the queue
// nor the timer set ever inspects its content.
type Event any

// Cloner duplicates an Event. The timer set calls this once per firing to
// produce the value pushed onto the output queue, leaving the timer's own
// template event untouched.
type Cloner func(Event) Event

// Destroyer releases an Event that will never be produced or consumed
// again. Called on template events when a timer is destroyed and on
// in-flight duplicates that are pulled back off the queue by
// abort-on-restart.
type Destroyer func(Event)

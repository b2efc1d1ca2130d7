/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package kodec

import (
	"fmt"
	"time"
)

// Event kinds fired by the transform/entropy stages of a block task.
const (
	EVT_BEFORE_TRANSFORM = 0 // Transform forward/inverse starts
	EVT_AFTER_TRANSFORM  = 1 // Transform forward/inverse ends
	EVT_BEFORE_ENTROPY   = 2 // Entropy encoding/decoding starts
	EVT_AFTER_ENTROPY    = 3 // Entropy encoding/decoding ends
)

// Event describes a single block-level compression/decompression event.
type Event struct {
	eventType int
	id        int
	size      int64
	eventTime time.Time
}

// NewEvent creates a new Event instance. id is the block id the event
// pertains to; size is the size, in bytes, relevant to the event type.
func NewEvent(evtType, id int, size int64, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, id: id, size: size, eventTime: evtTime}
}

// Type returns the event kind
func (this *Event) Type() int {
	return this.eventType
}

// ID returns the block id this event pertains to
func (this *Event) ID() int {
	return this.id
}

// Time returns the time the event was fired
func (this *Event) Time() time.Time {
	return this.eventTime
}

// Size returns the size, in bytes, relevant to the event type
func (this *Event) Size() int64 {
	return this.size
}

// String returns a string representation of this event.
func (this *Event) String() string {
	t := ""

	switch this.eventType {
	case EVT_BEFORE_TRANSFORM:
		t = "BEFORE_TRANSFORM"

	case EVT_AFTER_TRANSFORM:
		t = "AFTER_TRANSFORM"

	case EVT_BEFORE_ENTROPY:
		t = "BEFORE_ENTROPY"

	case EVT_AFTER_ENTROPY:
		t = "AFTER_ENTROPY"
	}

	return fmt.Sprintf("{ \"type\":\"%s\", \"id\":%d, \"size\":%d, \"time\":%d }",
		t, this.id, this.size, this.eventTime.UnixNano()/1000000)
}

// Listener is implemented by event processors registered on a stream.
type Listener interface {
	// ProcessEvent is called whenever a Listener receives an event. A
	// panicking listener is ignored; it never aborts the stream.
	ProcessEvent(evt *Event)
}

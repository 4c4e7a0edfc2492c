/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scanner

import (
	"net/netip"
	"sync"

	"github.com/carverauto/craftradar/pkg/models"
)

// EventKind identifies what a worker is reporting.
type EventKind int

const (
	// EventAddressesScanned carries the size of a completed chunk in Count.
	EventAddressesScanned EventKind = iota + 1
	// EventPortOpen carries the address that accepted a connection.
	EventPortOpen
	// EventServerFound carries the address and the decoded server.
	EventServerFound
)

func (k EventKind) String() string {
	switch k {
	case EventAddressesScanned:
		return "addresses_scanned"
	case EventPortOpen:
		return "port_open"
	case EventServerFound:
		return "server_found"
	default:
		return "unknown"
	}
}

// Event is sent from workers to the single aggregator.
type Event struct {
	Kind    EventKind
	Count   int
	Address netip.Addr
	Server  *models.DiscoveredServer
}

// EventBus is the many-producer, single-consumer event channel.
//
// With capacity 0 it is unbounded: Publish hands the event to a pump
// goroutine that queues it, so producers never wait on the consumer. A
// positive capacity gives a plain buffered channel and producers block when
// it is full.
type EventBus struct {
	in  chan Event
	out chan Event

	closeOnce sync.Once
}

// NewEventBus creates a bus; see EventBus for capacity semantics.
func NewEventBus(capacity int) *EventBus {
	if capacity > 0 {
		ch := make(chan Event, capacity)

		return &EventBus{in: ch, out: ch}
	}

	b := &EventBus{
		in:  make(chan Event),
		out: make(chan Event),
	}

	go b.pump()

	return b
}

// Bounded reports whether producers can be blocked by a slow consumer.
func (b *EventBus) Bounded() bool {
	return b.in == b.out
}

// Publish sends ev. It must not be called after Close.
func (b *EventBus) Publish(ev Event) {
	b.in <- ev
}

// Events is the consumer side. It is closed once Close has been called and
// every queued event has been received.
func (b *EventBus) Events() <-chan Event {
	return b.out
}

// Close stops accepting events. Safe to call more than once.
func (b *EventBus) Close() {
	b.closeOnce.Do(func() { close(b.in) })
}

func (b *EventBus) pump() {
	defer close(b.out)

	var queue []Event

	in := b.in

	for in != nil || len(queue) > 0 {
		var (
			out  chan Event
			next Event
		)

		if len(queue) > 0 {
			out = b.out
			next = queue[0]
		}

		select {
		case ev, ok := <-in:
			if !ok {
				in = nil

				continue
			}

			queue = append(queue, ev)
		case out <- next:
			queue[0] = Event{}
			queue = queue[1:]
		}
	}
}

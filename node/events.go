// Copyright (C) 2019-2026 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package node

import (
	"sync"

	"github.com/algorand/go-deadlock"

	"github.com/algorand/go-abciledger/data/transactions"
)

// EventType tags an Event.
type EventType int

const (
	// BlockValid is published once a block has been committed.
	BlockValid EventType = iota + 1
)

func (t EventType) String() string {
	switch t {
	case BlockValid:
		return "block_valid"
	}
	return "unknown"
}

// Event describes a committed block.
type Event struct {
	Type         EventType
	Height       uint64
	AppHash      string
	Transactions []transactions.Transaction
}

// EventListener represents an object that needs to get notified of block events.
type EventListener interface {
	OnEvent(ev Event)
}

// EventListenerFunc adapts a function to EventListener.
type EventListenerFunc func(ev Event)

// OnEvent implements EventListener
func (f EventListenerFunc) OnEvent(ev Event) {
	f(ev)
}

// Events delivers published events to the subscribed listeners from a
// single worker goroutine, in publication order. Publish never blocks on
// a listener.
type Events struct {
	mu        deadlock.Mutex
	cond      *sync.Cond
	listeners []EventListener
	pending   []Event
	running   bool
	done      chan struct{}
}

// MakeEvents starts an event bus.
func MakeEvents() *Events {
	ev := &Events{running: true, done: make(chan struct{})}
	ev.cond = sync.NewCond(&ev.mu)
	go ev.worker()
	return ev
}

func (ev *Events) worker() {
	defer close(ev.done)
	ev.mu.Lock()

	for {
		for ev.running && len(ev.pending) == 0 {
			ev.cond.Wait()
		}

		if !ev.running && len(ev.pending) == 0 {
			ev.mu.Unlock()
			return
		}

		events := ev.pending
		listeners := ev.listeners
		ev.pending = nil
		ev.mu.Unlock()

		for _, e := range events {
			for _, l := range listeners {
				l.OnEvent(e)
			}
		}

		ev.mu.Lock()
	}
}

// Subscribe registers listeners for every event published from now on.
func (ev *Events) Subscribe(listeners ...EventListener) {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	ev.listeners = append(ev.listeners, listeners...)
}

// Publish queues e for the listeners. Events published after Close are dropped.
func (ev *Events) Publish(e Event) {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	if !ev.running {
		return
	}
	ev.pending = append(ev.pending, e)
	ev.cond.Broadcast()
}

// Close delivers the queued events and stops the worker.
func (ev *Events) Close() {
	ev.mu.Lock()
	if ev.running {
		ev.running = false
		ev.cond.Broadcast()
	}
	ev.mu.Unlock()
	<-ev.done
}

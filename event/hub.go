// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package event provides an ordered publish/subscribe hub
package event

import (
	"fmt"
	"log/slog"
	"sync"
)

// HandlerFunc receives published events. A returned error is logged and does
// not affect delivery to other handlers
type HandlerFunc[T any] func(T) error

type subscriber[T any] struct {
	id      uint64
	handler HandlerFunc[T]
	// Guards active, never held while the handler runs
	mutex  sync.Mutex
	active bool
}

// start reports whether the handler may be invoked for an event
func (s *subscriber[T]) start() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.active
}

func (s *subscriber[T]) deactivate() {
	s.mutex.Lock()
	s.active = false
	s.mutex.Unlock()
}

// Hub delivers events synchronously to subscribers in subscription order
type Hub[T any] struct {
	name        string
	logger      *slog.Logger
	mutex       sync.RWMutex
	subscribers []*subscriber[T]
	nextId      uint64
}

// NewHub returns a hub. The name is used as the "hub" attribute when logging
// handler failures
func NewHub[T any](logger *slog.Logger, name string) *Hub[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub[T]{
		name:   name,
		logger: logger,
	}
}

// Subscribe registers a handler and returns a function that removes it. The
// returned function is idempotent. Once it returns, the handler is not
// invoked by later Publish calls, and a Publish in progress on another
// goroutine skips it unless that Publish has already decided to start it
func (h *Hub[T]) Subscribe(handler HandlerFunc[T]) func() {
	h.mutex.Lock()
	sub := &subscriber[T]{
		id:      h.nextId,
		handler: handler,
		active:  true,
	}
	h.nextId++
	h.subscribers = append(h.subscribers, sub)
	h.mutex.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			h.unsubscribe(sub)
		})
	}
}

func (h *Hub[T]) unsubscribe(sub *subscriber[T]) {
	h.mutex.Lock()
	for idx, tmpSub := range h.subscribers {
		if tmpSub.id == sub.id {
			h.subscribers = append(h.subscribers[:idx:idx], h.subscribers[idx+1:]...)
			break
		}
	}
	h.mutex.Unlock()
	sub.deactivate()
}

// Publish delivers an event to every current subscriber. Subscribers added by
// a handler during delivery only receive later events
func (h *Hub[T]) Publish(evt T) {
	h.mutex.RLock()
	subscribers := make([]*subscriber[T], len(h.subscribers))
	copy(subscribers, h.subscribers)
	h.mutex.RUnlock()
	for _, sub := range subscribers {
		if !sub.start() {
			continue
		}
		h.invoke(sub, evt)
	}
}

func (h *Hub[T]) invoke(sub *subscriber[T], evt T) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn(
				"event handler panicked",
				"component", "hydra",
				"hub", h.name,
				"error", fmt.Sprintf("%v", r),
			)
		}
	}()
	if err := sub.handler(evt); err != nil {
		h.logger.Warn(
			"event handler failed",
			"component", "hydra",
			"hub", h.name,
			"error", err,
		)
	}
}

// Len returns the number of subscribers
func (h *Hub[T]) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscribers)
}

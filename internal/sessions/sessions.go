/* SPDX-License-Identifier: AGPL-3.0-or-later
 *
 * Zymatik VCF Server - Serve variant queries from a single VCF file.
 * Copyright (C) 2024 Zymatik
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package sessions maintains stateful streaming cursors over a VcfStore's
// regions, addressed by unguessable UUID keys, with forward-only position
// tracking and idle-timeout eviction. A session is a plain value record in
// a map; no iterator is held open across calls.
package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zymatik-com/vcfserver/internal/filterexpr"
	"github.com/zymatik-com/vcfserver/internal/vcfstore"
)

// DefaultIdleTimeout is the deadline after which a session with no
// activity is treated as not found.
const DefaultIdleTimeout = 5 * time.Minute

// session is the store's internal record for one live query stream.
type session struct {
	chrom        string
	start, end   int
	lastReturned int
	filter       filterexpr.Predicate
	lastActivity time.Time
}

func (sess *session) expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(sess.lastActivity) > timeout
}

// Manager owns every live session for one VcfStore.
type Manager struct {
	store       *vcfstore.Store
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session

	stop chan struct{}
}

// NewManager returns a Manager backed by store, with a background ticker
// sweeping expired sessions every idleTimeout/2 (bounded below at one
// second), stoppable via a dedicated channel closed by Close.
func NewManager(store *vcfstore.Store, idleTimeout time.Duration) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	m := &Manager{
		store:       store,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*session),
		stop:        make(chan struct{}),
	}

	interval := idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	go m.sweepLoop(interval)

	return m
}

// Close stops the background sweep goroutine. It does not close the
// underlying VcfStore, which the Manager does not own.
func (m *Manager) Close() {
	close(m.stop)
}

func (m *Manager) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) sweep() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, sess := range m.sessions {
		if sess.expired(now, m.idleTimeout) {
			delete(m.sessions, key)
		}
	}
}

// Result is the shape common to StartStream and Next.
type Result struct {
	Variant        *vcfstore.Variant
	SessionKey     string
	More           bool
	ReferenceBuild string
	MatchedChrom   string
}

// StartStream normalizes chrom, runs the one-shot region query, and returns
// the first matching variant. A session is created, and its key returned,
// only when more than one variant matched; a single-variant or no-variants
// result creates no session.
func (m *Manager) StartStream(chrom string, start, end int, filter filterexpr.Predicate) (Result, error) {
	matched, variants, err := m.store.QueryRegion(chrom, start, end, filter)
	if err != nil {
		return Result{}, err
	}

	build := m.store.ReferenceBuild()

	if len(variants) == 0 {
		return Result{ReferenceBuild: build, MatchedChrom: matched}, nil
	}

	key := uuid.NewString()
	sess := &session{
		chrom:        matched,
		start:        start,
		end:          end,
		lastReturned: int(variants[0].Pos),
		filter:       filter,
		lastActivity: time.Now(),
	}

	m.mu.Lock()
	if len(variants) > 1 {
		m.sessions[key] = sess
	}
	m.mu.Unlock()

	more := len(variants) > 1
	result := Result{
		Variant:        variants[0],
		ReferenceBuild: build,
		MatchedChrom:   matched,
		More:           more,
	}
	if more {
		result.SessionKey = key
	}
	return result, nil
}

// Next advances the session's cursor strictly past its last-returned
// position, returning the next matching variant, or destroying the session
// and returning a null session key once the window is exhausted.
func (m *Manager) Next(key string) (Result, bool, error) {
	m.mu.Lock()
	sess, ok := m.sessions[key]
	if ok && sess.expired(time.Now(), m.idleTimeout) {
		delete(m.sessions, key)
		ok = false
	}
	if !ok {
		m.mu.Unlock()
		return Result{}, false, nil
	}
	sess.lastActivity = time.Now()
	chrom, start, end, filter := sess.chrom, sess.lastReturned+1, sess.end, sess.filter
	m.mu.Unlock()

	build := m.store.ReferenceBuild()

	if start > end {
		m.closeInternal(key)
		return Result{ReferenceBuild: build, MatchedChrom: chrom}, true, nil
	}

	_, variants, err := m.store.QueryRegion(chrom, start, end, filter)
	if err != nil {
		return Result{}, true, err
	}

	if len(variants) == 0 {
		m.closeInternal(key)
		return Result{ReferenceBuild: build, MatchedChrom: chrom}, true, nil
	}

	next := variants[0]
	more := len(variants) > 1

	if !more {
		m.closeInternal(key)
	} else {
		m.mu.Lock()
		if sess, ok := m.sessions[key]; ok {
			sess.lastReturned = int(next.Pos)
			sess.lastActivity = time.Now()
		}
		m.mu.Unlock()
	}

	result := Result{
		Variant:        next,
		More:           more,
		ReferenceBuild: build,
		MatchedChrom:   chrom,
	}
	if more {
		result.SessionKey = key
	}
	return result, true, nil
}

// Close removes key if present, returning whether it was present.
// Idempotent: a second call for the same key returns false.
func (m *Manager) Close(key string) bool {
	return m.closeInternal(key)
}

func (m *Manager) closeInternal(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key]; !ok {
		return false
	}
	delete(m.sessions, key)
	return true
}

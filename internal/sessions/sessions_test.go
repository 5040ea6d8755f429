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

package sessions

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/zymatik-com/vcfserver/internal/filterexpr"
	"github.com/zymatik-com/vcfserver/internal/vcfstore"
)

const fixtureVCF = `##fileformat=VCFv4.2
##contig=<ID=1,length=249250621>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
1	100	rs1	A	G	50	PASS	.
1	200	rs2	A	G	60	PASS	.
1	300	rs3	A	C	70	PASS	.
`

func openFixtureStore(t *testing.T) *vcfstore.Store {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.vcf")
	if err := os.WriteFile(path, []byte(fixtureVCF), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := vcfstore.Open(logger, path, vcfstore.Policy{NeverSaveIndex: true})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStreamMatchesOneShotRegionQuery(t *testing.T) {
	store := openFixtureStore(t)

	oneShotMatched, oneShot, err := store.QueryRegion("1", 100, 300, filterexpr.Always)
	if err != nil {
		t.Fatalf("QueryRegion() error: %v", err)
	}
	if len(oneShot) != 3 {
		t.Fatalf("one-shot query returned %d variants, want 3", len(oneShot))
	}

	mgr := NewManager(store, DefaultIdleTimeout)
	defer mgr.Close()

	var streamed []*vcfstore.Variant

	first, err := mgr.StartStream("1", 100, 300, filterexpr.Always)
	if err != nil {
		t.Fatalf("StartStream() error: %v", err)
	}
	if first.MatchedChrom != oneShotMatched {
		t.Errorf("MatchedChrom = %q, want %q", first.MatchedChrom, oneShotMatched)
	}
	if !first.More || first.SessionKey == "" {
		t.Fatalf("StartStream() = %+v, want More=true with a session key", first)
	}
	streamed = append(streamed, first.Variant)

	key := first.SessionKey
	for {
		next, ok, err := mgr.Next(key)
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if !ok {
			t.Fatalf("Next() ok = false, want true for a live session")
		}
		if next.Variant == nil {
			break
		}
		streamed = append(streamed, next.Variant)
		if !next.More {
			// The session is already closed once the last variant in the
			// window is delivered, mirroring StartStream's single-result case.
			break
		}
	}

	if len(streamed) != len(oneShot) {
		t.Fatalf("streamed %d variants, want %d", len(streamed), len(oneShot))
	}
	for i := range oneShot {
		if streamed[i].Id() != oneShot[i].Id() {
			t.Errorf("streamed[%d] = %s, want %s", i, streamed[i].Id(), oneShot[i].Id())
		}
	}

	// The session no longer exists once the region is exhausted.
	if _, ok, _ := mgr.Next(key); ok {
		t.Errorf("Next() on an exhausted session returned ok=true, want false")
	}
}

func TestNextReportsMoreFalseOnLastVariant(t *testing.T) {
	store := openFixtureStore(t)
	mgr := NewManager(store, DefaultIdleTimeout)
	defer mgr.Close()

	first, err := mgr.StartStream("1", 100, 300, filterexpr.Always)
	if err != nil {
		t.Fatalf("StartStream() error: %v", err)
	}
	if !first.More {
		t.Fatalf("StartStream() More = false, want true with two variants left")
	}

	middle, ok, err := mgr.Next(first.SessionKey)
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if !ok {
		t.Fatalf("Next() ok = false, want true")
	}
	if middle.Variant == nil || middle.Variant.Id() != "rs2" || !middle.More {
		t.Fatalf("Next() = %+v, want rs2 with More=true", middle)
	}

	second, ok, err := mgr.Next(first.SessionKey)
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if !ok {
		t.Fatalf("Next() ok = false, want true")
	}
	if second.Variant == nil || second.Variant.Id() != "rs3" {
		t.Fatalf("Next() variant = %+v, want rs3", second.Variant)
	}
	if second.More {
		t.Errorf("More = true on the last variant in the window, want false")
	}
	if second.SessionKey != "" {
		t.Errorf("SessionKey = %q, want empty once the last variant is delivered", second.SessionKey)
	}

	if _, ok, _ := mgr.Next(first.SessionKey); ok {
		t.Errorf("Next() on a session closed by the prior call returned ok=true, want false")
	}
}

func TestStartStreamSingleResultCreatesNoSession(t *testing.T) {
	store := openFixtureStore(t)
	mgr := NewManager(store, DefaultIdleTimeout)
	defer mgr.Close()

	result, err := mgr.StartStream("1", 200, 200, filterexpr.Always)
	if err != nil {
		t.Fatalf("StartStream() error: %v", err)
	}
	if result.More {
		t.Errorf("More = true, want false for a single-result region")
	}
	if result.SessionKey != "" {
		t.Errorf("SessionKey = %q, want empty", result.SessionKey)
	}
}

func TestStartStreamNoResults(t *testing.T) {
	store := openFixtureStore(t)
	mgr := NewManager(store, DefaultIdleTimeout)
	defer mgr.Close()

	result, err := mgr.StartStream("1", 1000, 2000, filterexpr.Always)
	if err != nil {
		t.Fatalf("StartStream() error: %v", err)
	}
	if result.Variant != nil || result.More || result.SessionKey != "" {
		t.Errorf("StartStream() = %+v, want an empty, sessionless result", result)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	store := openFixtureStore(t)
	mgr := NewManager(store, DefaultIdleTimeout)
	defer mgr.Close()

	result, err := mgr.StartStream("1", 100, 300, filterexpr.Always)
	if err != nil {
		t.Fatalf("StartStream() error: %v", err)
	}

	if !mgr.Close(result.SessionKey) {
		t.Fatalf("Close() = false on a live session, want true")
	}
	if mgr.Close(result.SessionKey) {
		t.Errorf("Close() = true on an already-closed session, want false")
	}
	if mgr.Close("never-existed") {
		t.Errorf("Close() = true on an unknown key, want false")
	}
}

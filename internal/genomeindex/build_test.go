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

package genomeindex

import (
	"errors"
	"testing"

	"github.com/biogo/hts/bgzf"
)

func chunkAt(n uint64) bgzf.Chunk {
	return bgzf.Chunk{
		Begin: bgzf.Offset{File: int64(n)},
		End:   bgzf.Offset{File: int64(n) + 1},
	}
}

func TestBuilderChunksWithinRange(t *testing.T) {
	b := NewBuilder()
	b.Add("1", 100, chunkAt(0))
	b.Add("1", 200, chunkAt(1))
	b.Add("1", 300, chunkAt(2))
	b.Add("2", 100, chunkAt(3))

	idx := b.Build()

	if idx.Kind() != KindTBI {
		t.Errorf("Kind() = %v, want %v", idx.Kind(), KindTBI)
	}

	chunks, err := idx.Chunks("1", 150, 250)
	if err != nil {
		t.Fatalf("Chunks() error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Chunks() = %+v, want exactly one spanning chunk", chunks)
	}
	if chunks[0].Begin != chunkAt(1).Begin || chunks[0].End != chunkAt(1).End {
		t.Errorf("Chunks() = %+v, want the chunk for position 200", chunks[0])
	}
}

func TestBuilderChunksNoOverlap(t *testing.T) {
	b := NewBuilder()
	b.Add("1", 100, chunkAt(0))
	idx := b.Build()

	chunks, err := idx.Chunks("1", 200, 300)
	if err != nil {
		t.Fatalf("Chunks() error: %v", err)
	}
	if chunks != nil {
		t.Errorf("Chunks() = %+v, want nil for a window past every entry", chunks)
	}
}

func TestBuilderChunksUnknownReference(t *testing.T) {
	b := NewBuilder()
	b.Add("1", 100, chunkAt(0))
	idx := b.Build()

	_, err := idx.Chunks("9", 1, 100)
	if !errors.Is(err, ErrNoReference) {
		t.Errorf("Chunks() error = %v, want ErrNoReference", err)
	}
}

func TestBuilderReferences(t *testing.T) {
	b := NewBuilder()
	b.Add("2", 1, chunkAt(0))
	b.Add("1", 1, chunkAt(1))
	idx := b.Build()

	got := idx.References()
	want := []string{"2", "1"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("References() = %v, want %v (first-seen order)", got, want)
	}
}

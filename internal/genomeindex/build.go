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
	"compress/gzip"
	"fmt"
	"os"
	"sort"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/tabix"
)

// Standard tabix binning-scheme parameters (14-bit minimal interval, 5
// levels of binning), matching the values every tabix-format file on disk
// uses per the format specification.
const (
	tbiMinShift = 14
	tbiDepth    = 5
)

// entry is one record's position and the BGZF chunk its line occupies.
type entry struct {
	pos   int
	chunk bgzf.Chunk
}

// Builder accumulates (chromosome, position, chunk) triples while a reader
// makes a single pass over a BGZF-compressed VCF, then finalizes them into
// an Index. It is used both for ephemeral, in-memory-only indices and as
// the staging step before persisting a sidecar.
type Builder struct {
	order   []string
	entries map[string][]entry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string][]entry)}
}

// Add records that a variant at (chrom, pos) occupies chunk. Add must be
// called in the order records appear in the file; pos is 1-based.
func (b *Builder) Add(chrom string, pos int, chunk bgzf.Chunk) {
	if _, ok := b.entries[chrom]; !ok {
		b.order = append(b.order, chrom)
	}
	b.entries[chrom] = append(b.entries[chrom], entry{pos: pos, chunk: chunk})
}

// Build finalizes the accumulated entries into an in-memory legacy binning
// index. The result satisfies the Index interface immediately; its WriteTo
// (used by Acquire and AcquireFromBuilder when persisting) writes it out as
// a real .tbi sidecar.
func (b *Builder) Build() Index {
	for _, chrom := range b.order {
		entries := b.entries[chrom]
		sort.Slice(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })
	}
	return &memIndex{order: b.order, entries: b.entries}
}

// memIndex is a legacy binning index built in memory from a full pass over
// the file, used when neither a CSI nor a TBI sidecar is present and the
// file is bgzipped.
//
// Chunks are resolved by binary search on the sorted per-chromosome
// position list rather than the bin-tree-plus-linear-index structure a
// persisted .tbi uses; the observable contract (BGZF chunks overlapping a
// window) is identical, at the cost of a slightly wider candidate chunk
// range for a cold, unpersisted index.
type memIndex struct {
	order   []string
	entries map[string][]entry
}

func (m *memIndex) Kind() Kind { return KindTBI }

func (m *memIndex) References() []string { return m.order }

func (m *memIndex) Chunks(chrom string, start, end int) ([]bgzf.Chunk, error) {
	entries, ok := m.entries[chrom]
	if !ok {
		return nil, ErrNoReference
	}

	lo := sort.Search(len(entries), func(i int) bool { return entries[i].pos >= start })
	if lo == len(entries) || entries[lo].pos > end {
		return nil, nil
	}

	hi := sort.Search(len(entries), func(i int) bool { return entries[i].pos > end })

	begin := entries[lo].chunk.Begin
	last := entries[hi-1].chunk.End

	return []bgzf.Chunk{{Begin: begin, End: last}}, nil
}

func (m *memIndex) WriteTo(w *os.File) error {
	idx, err := m.toTabixIndex()
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(w)
	if err := idx.WriteTo(gz); err != nil {
		return fmt.Errorf("encoding tbi index: %w", err)
	}
	return gz.Close()
}

// toTabixIndex converts the position list into the bin tree and linear
// index a real .tbi sidecar uses, via the tabix package's own builder so
// the on-disk binary layout stays owned by that library rather than by
// hand-rolled encoding here.
func (m *memIndex) toTabixIndex() (*tabix.Index, error) {
	builder := tabix.NewIndex(tbiMinShift, tbiDepth, tabix.VCF, 0, '#', 1, 2, 0, false)

	for _, chrom := range m.order {
		for _, e := range m.entries[chrom] {
			if err := builder.Add(chrom, e.pos, e.pos, e.chunk); err != nil {
				return nil, fmt.Errorf("adding %s:%d to tbi index: %w", chrom, e.pos, err)
			}
		}
	}

	return builder, nil
}

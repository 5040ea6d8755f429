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

// Package genomeindex wraps the two binning-index formats used to locate
// VCF records inside a BGZF stream (CSI, for contigs beyond 2^29 bp, and
// the legacy tabix/TBI format) behind one query capability: produce the
// set of BGZF chunks overlapping a [chrom, start, end] window.
package genomeindex

import (
	"errors"
	"fmt"
	"os"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
)

// ErrNoReference is returned by Chunks when the chromosome is not present
// in the index.
var ErrNoReference = index.ErrNoReference

// Kind identifies which on-disk binning-index format backs an Index.
type Kind int

const (
	// KindTBI is the legacy tabix binning index (max contig length 2^29bp).
	KindTBI Kind = iota
	// KindCSI is the large-coordinate binning index.
	KindCSI
)

func (k Kind) String() string {
	if k == KindCSI {
		return "csi"
	}
	return "tbi"
}

func (k Kind) sidecarSuffix() string {
	if k == KindCSI {
		return ".csi"
	}
	return ".tbi"
}

// location is the minimal (chrom, start, end) shape both the tabix and csi
// packages query against.
type location struct {
	chrom      string
	start, end int
}

func (l location) RefName() string { return l.chrom }
func (l location) Start() int      { return l.start }
func (l location) End() int        { return l.end }

// Index is the tagged-variant abstraction described by the genomics-index
// design note: one capability ("chunks for a window"), two concrete
// on-disk representations behind it.
type Index interface {
	// Kind reports which binning-index format backs this Index.
	Kind() Kind
	// Chunks returns the BGZF chunks that may contain records overlapping
	// [start, end] (1-based, inclusive) on chrom. ErrNoReference is
	// returned when chrom is not present in the index.
	Chunks(chrom string, start, end int) ([]bgzf.Chunk, error)
	// References lists every reference name present in the VCF body, in
	// the order the index stores them.
	References() []string
	// WriteTo serializes the index in its native on-disk format.
	WriteTo(w *os.File) error
}

// Load tries the CSI sidecar first, then the legacy TBI sidecar. It returns
// (nil, false, nil) if neither is present.
func Load(vcfPath string) (Index, bool, error) {
	if idx, err := loadCSI(vcfPath + KindCSI.sidecarSuffix()); err == nil {
		return idx, true, nil
	} else if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("loading csi index: %w", err)
	}

	if idx, err := loadTBI(vcfPath + KindTBI.sidecarSuffix()); err == nil {
		return idx, true, nil
	} else if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("loading tbi index: %w", err)
	}

	return nil, false, nil
}

// chunksOrNotFound normalizes the "chromosome absent" signal from the
// underlying hts index packages to ErrNoReference, regardless of which
// concrete sentinel value they return.
func chunksOrNotFound(chunks []bgzf.Chunk, err error) ([]bgzf.Chunk, error) {
	if errors.Is(err, index.ErrNoReference) {
		return nil, ErrNoReference
	}
	return chunks, err
}

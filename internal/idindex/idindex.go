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

// Package idindex persists a mapping from variant identifier to the
// locators (chromosome, 1-based position) of every record carrying that
// identifier. Binning indices cannot resolve identifiers directly, so the
// VcfStore consults this index first and point-queries the genomic index
// at each locator it returns.
package idindex

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"

	"github.com/FastFilter/xorfilter"
)

// hashID maps an identifier string to the uint64 key space the xor filter
// indexes over. FNV-1a is more than sufficient here: the filter only needs
// a uniform hash, not a cryptographic one.
func hashID(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

// formatVersion guards the private on-disk gob layout; bump it on any
// backward-incompatible change and refuse to load older files.
const formatVersion = 1

// Locator is one occurrence of an identifier in the VCF body.
type Locator struct {
	Chrom string
	Pos   int
}

// onDisk is the gob-encoded payload written to <vcf>.idx.
type onDisk struct {
	Version int
	Index   map[string][]Locator
}

// Index is the in-memory, query-ready form of the on-disk mapping, with an
// xor-filter fast-negative path layered in front of the authoritative map:
// a large dbSNP-scale identifier set makes a guaranteed O(1),
// branch-predictable "definitely absent" check worth the extra
// build-time pass, since it lets query_id short-circuit before touching
// the (potentially very large) decoded map at all.
type Index struct {
	byID   map[string][]Locator
	filter *xorfilter.Xor8
}

// Builder accumulates identifier -> locator associations during a single
// pass over the VCF.
type Builder struct {
	byID map[string][]Locator
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byID: make(map[string][]Locator)}
}

// Add records that id occurs at (chrom, pos). Multiple records sharing an
// id are preserved in the order Add is called.
func (b *Builder) Add(id, chrom string, pos int) {
	b.byID[id] = append(b.byID[id], Locator{Chrom: chrom, Pos: pos})
}

// Build finalizes the accumulated associations into a query-ready Index.
func (b *Builder) Build() (*Index, error) {
	return newIndex(b.byID)
}

func newIndex(byID map[string][]Locator) (*Index, error) {
	keys := make([]uint64, 0, len(byID))
	for id := range byID {
		keys = append(keys, hashID(id))
	}

	var filter *xorfilter.Xor8
	if len(keys) > 0 {
		f, err := xorfilter.Populate(keys)
		if err != nil {
			return nil, fmt.Errorf("building identifier membership filter: %w", err)
		}
		filter = f
	}

	return &Index{byID: byID, filter: filter}, nil
}

// Lookup returns the locators for id, preserving insertion order, and
// whether id is present at all. No identifier ever maps to an empty,
// non-nil slice.
func (idx *Index) Lookup(id string) ([]Locator, bool) {
	if idx.filter != nil && !idx.filter.Contains(hashID(id)) {
		return nil, false
	}

	locs, ok := idx.byID[id]
	return locs, ok
}

// Len reports the number of distinct identifiers indexed.
func (idx *Index) Len() int { return len(idx.byID) }

// sidecarSuffix is the identifier-index sidecar's file extension.
const sidecarSuffix = ".idx"

// Load reads a previously persisted identifier index, returning
// (nil, false, nil) if the sidecar does not exist.
func Load(vcfPath string) (*Index, bool, error) {
	f, err := os.Open(vcfPath + sidecarSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload onDisk
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decoding id index: %w", err)
	}
	if payload.Version != formatVersion {
		return nil, false, fmt.Errorf("id index format version %d unsupported (want %d)", payload.Version, formatVersion)
	}

	idx, err := newIndex(payload.Index)
	if err != nil {
		return nil, false, err
	}
	return idx, true, nil
}

// Persist writes idx to a temp file beside vcfPath and atomically renames
// it into place. Unlike the genomic index, it does not re-check for a
// sidecar that appeared mid-write: the rename still succeeds (it simply
// replaces whichever copy landed first), since both copies are derived
// from an identical full-file scan and are therefore interchangeable.
func Persist(logger *slog.Logger, vcfPath string, idx *Index) error {
	target := vcfPath + sidecarSuffix
	tmp := target + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("creating temp id index file: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(onDisk{Version: formatVersion, Index: idx.byID}); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding id index: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing temp id index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temp id index file: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming id index into place: %w", err)
	}

	logger.Debug("persisted identifier index", "path", target, "identifiers", idx.Len())
	return nil
}

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

package vcfstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brentp/vcfgo"

	"github.com/zymatik-com/vcfserver/internal/filterexpr"
	"github.com/zymatik-com/vcfserver/internal/reader"
)

// Header describes the result of a get_vcf_header call.
type Header struct {
	Text           string
	LineCount      int
	ReferenceBuild string
}

// QueryPosition returns every record at pos on the chromosome chrom
// resolves to. A not-found chromosome returns NotFound; a found
// chromosome with no matching records returns an empty, non-nil slice.
func (s *Store) QueryPosition(chrom string, pos int) (matchedChrom string, variants []*Variant, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched, ok := s.resolveChrom(chrom)
	if !ok {
		return "", nil, s.notFound(chrom)
	}

	variants, err = s.collectRegion(matched, pos, pos, filterexpr.Always)
	if err == nil && variants == nil {
		variants = []*Variant{}
	}
	return matched, variants, err
}

// QueryRegion returns every record in [start, end] on the chromosome chrom
// resolves to, ordered by position then file order, subject to an optional
// compiled filter predicate.
func (s *Store) QueryRegion(chrom string, start, end int, filter filterexpr.Predicate) (matchedChrom string, variants []*Variant, err error) {
	if err := validateRegion(start, end); err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched, ok := s.resolveChrom(chrom)
	if !ok {
		return "", nil, s.notFound(chrom)
	}

	if filter == nil {
		filter = filterexpr.Always
	}

	variants, err = s.collectRegion(matched, start, end, filter)
	return matched, variants, err
}

// QueryID looks up id in the identifier index, then point-queries the
// genomic index at each locator and returns every record whose identifier
// field equals id exactly (case-sensitive).
func (s *Store) QueryID(id string) ([]*Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids == nil {
		return nil, nil
	}

	locators, ok := s.ids.Lookup(id)
	if !ok {
		return nil, nil
	}

	var variants []*Variant
	for _, loc := range locators {
		found, err := s.collectRegion(loc.Chrom, loc.Pos, loc.Pos, filterexpr.Always)
		if err != nil {
			return nil, err
		}
		for _, v := range found {
			if v.Id() == id {
				variants = append(variants, v)
			}
		}
	}
	return variants, nil
}

// GetHeader returns the raw header text, optionally restricted to lines
// containing substring, excluding ##contig lines by default.
func (s *Store) GetHeader(substring string) Header {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := strings.SplitAfter(s.rawHeader, "\n")

	var kept []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		if substring == "" && strings.HasPrefix(line, "##contig") {
			continue
		}
		if substring != "" && !strings.Contains(line, substring) {
			continue
		}
		kept = append(kept, line)
	}

	return Header{
		Text:           strings.Join(kept, ""),
		LineCount:      len(kept),
		ReferenceBuild: s.referenceBuild,
	}
}

// resolveChrom normalizes chrom against the store's contig set. The
// caller must already hold s.mu.
func (s *Store) resolveChrom(chrom string) (string, bool) {
	matched, _, ok := s.normalize(chrom)
	return matched, ok
}

// collectRegion gathers every record on chrom within [start, end] passing
// filter, in position order. The caller must already hold s.mu.
func (s *Store) collectRegion(chrom string, start, end int, filter filterexpr.Predicate) ([]*Variant, error) {
	var out []*Variant

	if !s.compressed {
		for _, v := range s.plainVariants {
			if v.Chromosome != chrom {
				continue
			}
			pos := int(v.Pos)
			if pos < start || pos > end {
				continue
			}
			if filter(v) {
				out = append(out, v)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
		return out, nil
	}

	chunks, err := s.genomic.Chunks(chrom, start, end)
	if err != nil {
		return nil, fmt.Errorf("resolving chunks for %s:%d-%d: %w", chrom, start, end, err)
	}

	err = reader.Region(s.bgzfReader, s.vcfReader, chunks, start, end, func(v *vcfgo.Variant) bool {
		if v.Chromosome == chrom && filter(v) {
			out = append(out, v)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return out, nil
}

// validateRegion enforces start <= end and the region-width ceiling.
func validateRegion(start, end int) error {
	if start > end {
		return InvalidRegion{Start: start, End: end}
	}
	if end-start+1 > MaxRegionWidth {
		return RegionTooLarge{Start: start, End: end, Limit: MaxRegionWidth}
	}
	return nil
}

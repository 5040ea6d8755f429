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

import "strings"

// normalize resolves an incoming chromosome name against the set of names
// the genomic index actually recognizes, trying (in order) the name
// verbatim, with a leading "chr" stripped, and with "chr" prepended.
// It returns the resolved name and true, or the alternate-name suggestion
// (the transformation that was tried but failed) and false.
func (s *Store) normalize(chrom string) (string, string, bool) {
	candidates := []string{chrom}

	switch {
	case strings.HasPrefix(chrom, "chr"):
		candidates = append(candidates, strings.TrimPrefix(chrom, "chr"))
	default:
		candidates = append(candidates, "chr"+chrom)
	}

	for _, c := range candidates {
		if s.hasContig(c) {
			return c, "", true
		}
	}

	return "", candidates[1], false
}

// hasContig reports whether name is present in the VCF body, per the
// genomic index (header-only contigs may legitimately fail here).
func (s *Store) hasContig(name string) bool {
	_, ok := s.contigSet[name]
	return ok
}

// sampleChromosomes returns up to five example chromosome names from the
// file, for the "not found" result's available_chromosomes_sample.
func (s *Store) sampleChromosomes() []string {
	max := 5
	if len(s.contigs) < max {
		max = len(s.contigs)
	}
	sample := make([]string, max)
	for i := 0; i < max; i++ {
		sample[i] = s.contigs[i].Name
	}
	return sample
}

func (s *Store) notFound(chrom string) NotFound {
	_, suggestion, _ := s.normalize(chrom)
	return NotFound{
		Chrom:                     chrom,
		AvailableChromosomeSample: s.sampleChromosomes(),
		Suggestion:                suggestion,
	}
}

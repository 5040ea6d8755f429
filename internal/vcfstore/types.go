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

import "github.com/brentp/vcfgo"

// Contig is one sequence named in the VCF header's ##contig lines, in the
// order they were declared.
type Contig struct {
	Name   string
	Length int64
}

// Variant is the model the store returns to callers; presently a thin
// alias for the parser's own representation, since vcfgo.Variant already
// carries every field a variant result needs (chromosome, 1-based
// position, id, alleles, quality, filter set, INFO, FORMAT/genotypes).
type Variant = vcfgo.Variant

// NotFound is the distinguished "chromosome not found" result shape
// returned by every tool that takes a chromosome argument.
type NotFound struct {
	Chrom                    string
	AvailableChromosomeSample []string
	Suggestion               string
}

func (NotFound) Error() string { return "chromosome not found" }

// RegionTooLarge is the precondition error for a region exceeding the
// 10,000-base window limit.
type RegionTooLarge struct {
	Start, End int
	Limit      int
}

func (e RegionTooLarge) Error() string {
	return "region exceeds maximum width"
}

// InvalidRegion is the precondition error for start > end.
type InvalidRegion struct {
	Start, End int
}

func (InvalidRegion) Error() string { return "region start must not exceed end" }

// MaxRegionWidth is the largest end-start+1 a one-shot or streamed region
// query may span.
const MaxRegionWidth = 10_000

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

// Package stats computes a single-pass, full-file statistics summary:
// counted and summarized facts over every record in a VcfStore, classified
// by variant type.
package stats

import (
	"sort"
	"strconv"

	"github.com/brentp/vcfgo"
)

// VariantType is one of the five REF/ALT shape classifications.
type VariantType string

const (
	SNP       VariantType = "SNP"
	Insertion VariantType = "Insertion"
	Deletion  VariantType = "Deletion"
	MNP       VariantType = "MNP"
	Complex   VariantType = "Complex"
)

// Classify applies the REF/ALT length classification table to a single
// (ref, alt) pair.
func Classify(ref, alt string) VariantType {
	switch {
	case len(ref) == 1 && len(alt) == 1:
		return SNP
	case len(ref) == 1 && len(alt) > 1:
		return Insertion
	case len(ref) > 1 && len(alt) == 1:
		return Deletion
	case len(ref) > 1 && len(ref) == len(alt):
		return MNP
	default:
		return Complex
	}
}

// DefaultMaxChromosomes is the truncation applied to the per-chromosome
// count table when the caller does not specify one.
const DefaultMaxChromosomes = 25

// chromCount pairs a chromosome name with its record count, for sorting.
type chromCount struct {
	name  string
	count int64
}

// Summary is the aggregated result of a single full-file scan.
type Summary struct {
	TotalRecords int64
	ByType       map[VariantType]int64

	QualMin, QualMax, QualMean float64
	HasQuality                 bool

	DepthMin, DepthMax, DepthMean float64
	HasDepth                      bool

	ByFilter map[string]int64

	// ByChromosome is sorted by count descending, truncated to
	// maxChromosomes (0 meaning unlimited).
	ByChromosome []ChromosomeCount
}

// ChromosomeCount is one entry of Summary.ByChromosome.
type ChromosomeCount struct {
	Chromosome string
	Count      int64
}

// Aggregator accumulates statistics across a scan; Summary is produced by
// calling Finish once the scan completes.
type Aggregator struct {
	total  int64
	byType map[VariantType]int64

	qualSum          float64
	qualMin, qualMax float64
	qualSeen         int64

	depthSum           float64
	depthMin, depthMax float64
	depthSeen          int64

	byFilter map[string]int64
	byChrom  map[string]int64
}

// NewAggregator returns an empty Aggregator, ready to fold in records from
// a single full-file scan.
func NewAggregator() *Aggregator {
	return &Aggregator{
		byType:   make(map[VariantType]int64),
		byFilter: make(map[string]int64),
		byChrom:  make(map[string]int64),
	}
}

// Add folds one variant's contribution into the Aggregator. Multi-allelic
// records are classified and counted once per alternate allele.
func (a *Aggregator) Add(v *vcfgo.Variant) {
	a.total++
	a.byChrom[v.Chromosome]++

	ref := v.Ref()
	for _, alt := range v.Alt() {
		a.byType[Classify(ref, alt)]++
	}

	if v.Quality != nil {
		q := float64(*v.Quality)
		if a.qualSeen == 0 || q < a.qualMin {
			a.qualMin = q
		}
		if a.qualSeen == 0 || q > a.qualMax {
			a.qualMax = q
		}
		a.qualSum += q
		a.qualSeen++
	}

	if v.Filter != "" {
		for _, tag := range splitFilterTags(v.Filter) {
			a.byFilter[tag]++
		}
	}

	if v.Info() != nil {
		if raw, err := v.Info().Get("DP"); err == nil {
			if depth, ok := toFloat(raw); ok {
				if a.depthSeen == 0 || depth < a.depthMin {
					a.depthMin = depth
				}
				if a.depthSeen == 0 || depth > a.depthMax {
					a.depthMax = depth
				}
				a.depthSum += depth
				a.depthSeen++
			}
		}
	}
}

// Finish produces the Summary for every record folded in so far, sorting
// and truncating the per-chromosome table to maxChromosomes (0 = unlimited).
func (a *Aggregator) Finish(maxChromosomes int) Summary {
	s := Summary{
		TotalRecords: a.total,
		ByType:       a.byType,
		ByFilter:     a.byFilter,
	}

	if a.qualSeen > 0 {
		s.HasQuality = true
		s.QualMin = a.qualMin
		s.QualMax = a.qualMax
		s.QualMean = a.qualSum / float64(a.qualSeen)
	}

	if a.depthSeen > 0 {
		s.HasDepth = true
		s.DepthMin = a.depthMin
		s.DepthMax = a.depthMax
		s.DepthMean = a.depthSum / float64(a.depthSeen)
	}

	counts := make([]chromCount, 0, len(a.byChrom))
	for name, n := range a.byChrom {
		counts = append(counts, chromCount{name: name, count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})
	if maxChromosomes > 0 && len(counts) > maxChromosomes {
		counts = counts[:maxChromosomes]
	}
	for _, c := range counts {
		s.ByChromosome = append(s.ByChromosome, ChromosomeCount{Chromosome: c.name, Count: c.count})
	}

	return s
}

// splitFilterTags splits a FILTER column value ("PASS", ".", or a
// semicolon-joined tag list) into its individual tags.
func splitFilterTags(filter string) []string {
	if filter == "" || filter == "." || filter == "PASS" {
		return []string{filter}
	}

	var tags []string
	start := 0
	for i := 0; i <= len(filter); i++ {
		if i == len(filter) || filter[i] == ';' {
			if i > start {
				tags = append(tags, filter[start:i])
			}
			start = i + 1
		}
	}
	return tags
}

// toFloat coerces vcfgo's loosely-typed INFO values (int, int64, float32,
// float64, or a decimal string) into a float64, per the varied shapes
// vcfgo.Info.Get returns depending on the header's declared INFO type.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

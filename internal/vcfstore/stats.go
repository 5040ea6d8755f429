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
	"time"

	"github.com/biogo/hts/bgzf"
	"github.com/brentp/vcfgo"

	"github.com/zymatik-com/vcfserver/internal/stats"
)

// Statistics runs a single full-file scan, aggregating the counted and
// summarized facts over the file. Unlike query operations, it holds the
// store's lock for the entire scan.
func (s *Store) Statistics(maxChromosomes int) (stats.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	agg := stats.NewAggregator()
	err := s.scanAll(func(v *vcfgo.Variant, _ bgzf.Chunk) error {
		agg.Add(v)
		return nil
	})
	if err != nil {
		return stats.Summary{}, fmt.Errorf("aggregating statistics: %w", err)
	}

	summary := agg.Finish(maxChromosomes)

	s.logger.Debug("computed vcf statistics", "path", s.path, "records", summary.TotalRecords, "elapsed", time.Since(start))

	return summary, nil
}

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
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/brentp/vcfgo"
	"github.com/cheggaaa/pb/v3"

	"github.com/zymatik-com/vcfserver/internal/genomeindex"
	"github.com/zymatik-com/vcfserver/internal/idindex"
)

// acquireIndices obtains the genomic index (compressed inputs only) and the
// identifier index through the same build/load state machine. Whichever
// of the two actually need building share a single full-file pass
// (scanAll), since both are single-pass builds over the same data.
func (s *Store) acquireIndices(policy Policy) error {
	var genomicBuilder *genomeindex.Builder
	if s.compressed {
		if idx, ok, err := genomeindex.Load(s.path); err != nil {
			return fmt.Errorf("loading genomic index: %w", err)
		} else if ok {
			s.genomic = idx
			s.genomicState = genomeindex.StateLoaded
		} else {
			genomicBuilder = genomeindex.NewBuilder()
		}
	}

	var idBuilder *idindex.Builder
	if idx, ok, err := idindex.Load(s.path); err != nil {
		return fmt.Errorf("loading identifier index: %w", err)
	} else if ok {
		s.ids = idx
		s.idsExist = true
	} else {
		idBuilder = idindex.NewBuilder()
	}

	if genomicBuilder == nil && idBuilder == nil {
		return nil
	}

	if err := s.scanForIndices(policy, genomicBuilder, idBuilder); err != nil {
		return err
	}

	genomicPolicy := genomeindex.Policy{NeverSave: policy.NeverSaveIndex}

	if genomicBuilder != nil {
		idx, state, err := genomeindex.AcquireFromBuilder(s.logger, s.path, genomicPolicy, genomicBuilder)
		if err != nil {
			return fmt.Errorf("acquiring genomic index: %w", err)
		}
		s.genomic = idx
		s.genomicState = state
	}

	if idBuilder != nil {
		// A concurrent writer's sidecar may have appeared during the scan;
		// re-check before committing our own copy.
		if idx, ok, err := idindex.Load(s.path); err == nil && ok {
			s.logger.Debug("identifier index appeared during build, discarding in-memory copy", "path", s.path)
			s.ids = idx
			s.idsExist = true
			return nil
		}

		built, err := idBuilder.Build()
		if err != nil {
			return fmt.Errorf("building identifier index: %w", err)
		}
		s.ids = built
		s.idsExist = true

		if !policy.NeverSaveIndex {
			if err := idindex.Persist(s.logger, s.path, built); err != nil {
				s.logger.Warn("could not persist identifier index, continuing with in-memory copy", "path", s.path, "error", err)
			}
		}
	}

	return nil
}

// scanForIndices runs the shared full-file pass, feeding every record into
// whichever builders are non-nil. A progress bar is shown when requested,
// incremented per record since the record count (unlike
// the importer's byte-oriented bars) isn't known ahead of a single pass.
func (s *Store) scanForIndices(policy Policy, genomicBuilder *genomeindex.Builder, idBuilder *idindex.Builder) error {
	var bar *pb.ProgressBar
	if policy.ShowProgress {
		bar = pb.Full.Start(0)
		defer bar.Finish()
	}

	err := s.scanAll(func(v *vcfgo.Variant, chunk bgzf.Chunk) error {
		if bar != nil {
			bar.Increment()
		}

		if genomicBuilder != nil {
			genomicBuilder.Add(v.Chromosome, int(v.Pos), chunk)
		}

		if idBuilder != nil {
			for _, id := range splitIdentifiers(v.Id()) {
				idBuilder.Add(id, v.Chromosome, int(v.Pos))
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning vcf body for indices: %w", err)
	}
	return nil
}

// splitIdentifiers splits vcfgo's semicolon-joined ID() string back into
// its individual identifiers, skipping the VCF "missing value" token.
func splitIdentifiers(joined string) []string {
	if joined == "" || joined == "." {
		return nil
	}

	parts := strings.Split(joined, ";")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" && p != "." {
			ids = append(ids, p)
		}
	}
	return ids
}

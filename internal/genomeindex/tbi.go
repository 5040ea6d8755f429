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

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/tabix"
)

// tbiIndex wraps a legacy tabix binning index.
type tbiIndex struct {
	idx *tabix.Index
}

func loadTBI(path string) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing tbi sidecar: %w", err)
	}
	defer gz.Close()

	idx, err := tabix.ReadFrom(gz)
	if err != nil {
		return nil, fmt.Errorf("reading tbi sidecar: %w", err)
	}

	return &tbiIndex{idx: idx}, nil
}

func (t *tbiIndex) Kind() Kind { return KindTBI }

func (t *tbiIndex) References() []string { return t.idx.Names() }

func (t *tbiIndex) Chunks(chrom string, start, end int) ([]bgzf.Chunk, error) {
	chunks, err := t.idx.Chunks(location{chrom: chrom, start: start, end: end})
	return chunksOrNotFound(chunks, err)
}

func (t *tbiIndex) WriteTo(w *os.File) error {
	gz := gzip.NewWriter(w)
	if err := t.idx.WriteTo(gz); err != nil {
		return fmt.Errorf("encoding tbi index: %w", err)
	}
	return gz.Close()
}

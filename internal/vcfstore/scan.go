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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bgzf"
	"github.com/brentp/vcfgo"

	"github.com/zymatik-com/vcfserver/internal/reader"
)

// scanVisitor is called once per decoded record during a full-file pass.
// chunk is the zero value for uncompressed files, where no BGZF virtual
// offsets exist.
type scanVisitor func(v *vcfgo.Variant, chunk bgzf.Chunk) error

// scanAll makes one pass over the entire VCF body from the beginning,
// calling visit for every record. It is the shared single-pass primitive
// behind the ID index build, the in-memory genomic index build, and the
// statistics aggregator, each of which is an independent single pass that
// naturally collapses into one
// when the caller needs more than one of them at once.
func (s *Store) scanAll(visit scanVisitor) error {
	if !s.compressed {
		for _, v := range s.plainVariants {
			if err := visit(v, bgzf.Chunk{}); err != nil {
				return err
			}
		}
		return nil
	}

	f, err := s.reopenBody()
	if err != nil {
		return err
	}
	defer f.Close()

	bgzfReader, err := bgzf.NewReader(f, 0)
	if err != nil {
		return fmt.Errorf("opening bgzf stream: %w", err)
	}
	defer bgzfReader.Close()

	vr, err := vcfgo.NewReader(bgzfReader, false)
	if err != nil {
		return fmt.Errorf("re-reading vcf header: %w", err)
	}

	br := bufio.NewReaderSize(bgzfReader, 64*1024)
	prevEnd := bgzfReader.LastChunk().End

	for {
		line, err := br.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("scanning vcf body: %w", err)
		}

		line = bytes.TrimRight(line, "\n\r")
		chunk := bgzf.Chunk{Begin: prevEnd, End: bgzfReader.LastChunk().End}
		prevEnd = chunk.End

		if len(line) > 0 {
			variant := vr.Parse(reader.SplitFields(line))
			if variant != nil {
				if err := visit(variant, chunk); err != nil {
					return err
				}
			}
		}

		if err == io.EOF {
			return nil
		}
	}
}

// reopenBody opens an independent *os.File handle onto the VCF path so a
// full scan can run without disturbing the store's primary file handle
// and its position (the store's handle is a single-owner resource; scans
// used for index builds happen before or alongside normal query
// traffic and must not race the primary handle's seeks).
func (s *Store) reopenBody() (*os.File, error) {
	return os.Open(s.path)
}

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

// Package reader decodes VCF records lazily from a BGZF stream, given the
// set of chunks a genomic-index query produced. It never materializes a
// region into memory itself; callers decide whether to collect or stream.
package reader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
	"github.com/brentp/vcfgo"
)

// Region scans the chunks of a BGZF-compressed VCF and calls yield for
// every decoded record whose position falls within [start, end]. Scanning
// stops as soon as a record's position exceeds end, or yield returns
// false, or the chunk data is exhausted. vcfReader must already have
// parsed the file's header; it is used only to parse record lines, never
// reseeked.
func Region(bgzfReader *bgzf.Reader, vcfReader *vcfgo.Reader, chunks []bgzf.Chunk, start, end int, yield func(*vcfgo.Variant) bool) error {
	if len(chunks) == 0 {
		return nil
	}

	cr, err := index.NewChunkReader(bgzfReader, chunks)
	if err != nil {
		return fmt.Errorf("opening chunk reader: %w", err)
	}

	br := bufio.NewReaderSize(cr, 64*1024)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) == 0 {
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading vcf record: %w", err)
			}
		}

		line = bytes.TrimRight(line, "\n\r")
		if len(line) == 0 {
			if err == io.EOF {
				return nil
			}
			continue
		}

		variant := vcfReader.Parse(SplitFields(line))
		if variant == nil {
			if err == io.EOF {
				return nil
			}
			continue
		}

		if variant.Pos > uint64(end) {
			return nil
		}

		if variant.Pos >= uint64(start) {
			if !yield(variant) {
				return nil
			}
		}

		if err == io.EOF {
			return nil
		}
	}
}

// SplitFields mirrors the fixed-column-then-samples-blob split vcfgo's
// Reader.Parse expects: the first 8 mandatory columns as separate tokens,
// FORMAT and the remaining per-sample columns collapsed into the trailing
// tokens vcfgo itself re-splits.
func SplitFields(line []byte) [][]byte {
	fields := make([][]byte, 9)
	copy(fields[:8], bytes.SplitN(line, []byte{'\t'}, 8))

	s := 0
	for i := 0; i < 7; i++ {
		s += len(fields[i]) + 1
	}

	e := bytes.IndexByte(line[s:], '\t')
	if e == -1 {
		fields[7] = line[s:]
		return fields[:8]
	}
	e += s

	fields[7] = line[s:e]
	if len(line) > e+1 {
		fields[8] = line[e+1:]
	} else {
		fields = fields[:8]
	}

	return fields
}

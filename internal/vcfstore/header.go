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
	"regexp"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"

	"github.com/zymatik-com/vcfserver/internal/refbuild"
)

var (
	contigLineRE   = regexp.MustCompile(`##contig=<([^>]*)>`)
	referenceLineRE = regexp.MustCompile(`^##reference=(.*)$`)
)

// loadHeaderMetadata captures the raw header text (every line up to and
// including #CHROM) and derives the contig list and reference build from
// it. vcfgo's own header parse (performed once, inside NewReader, as part
// of opening the record stream) remains the source of truth for record
// decoding; this pass only recovers the verbatim text callers expect to
// be able to read back unchanged.
func (s *Store) loadHeaderMetadata() {
	lines, err := s.readRawHeaderLines()
	if err != nil {
		// A corrupt header would already have failed vcfgo's own parse
		// in openHeader; treat this as best-effort enrichment.
		return
	}

	s.rawHeader = strings.Join(lines, "")

	var referenceDirective string
	contigLengths := make(map[string]int64)

	for _, line := range lines {
		line = strings.TrimRight(line, "\n")

		if m := referenceLineRE.FindStringSubmatch(line); m != nil {
			referenceDirective = m[1]
			continue
		}

		if m := contigLineRE.FindStringSubmatch(line); m != nil {
			name, length, ok := parseContigAttrs(m[1])
			if ok {
				s.contigs = append(s.contigs, Contig{Name: name, Length: length})
				contigLengths[name] = length
			}
		}
	}

	switch {
	case referenceDirective != "":
		s.referenceBuild = refbuild.FromHeader(referenceDirective)
	case len(contigLengths) > 0:
		s.referenceBuild = refbuild.FromContigLengths(contigLengths)
	default:
		s.referenceBuild = refbuild.Unknown
	}
}

// parseContigAttrs extracts ID and length from a ##contig=<...> body.
func parseContigAttrs(attrs string) (name string, length int64, ok bool) {
	for _, part := range strings.Split(attrs, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ID":
			name = kv[1]
		case "length":
			if n, err := strconv.ParseInt(kv[1], 10, 64); err == nil {
				length = n
			}
		}
	}
	return name, length, name != ""
}

// readRawHeaderLines reads every header line (anything up to and
// including #CHROM) from an independent handle onto the file, leaving the
// store's primary handle untouched.
func (s *Store) readRawHeaderLines() ([]string, error) {
	f, err := s.reopenBody()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var br *bufio.Reader
	if s.compressed {
		bgzfR, err := bgzf.NewReader(f, 0)
		if err != nil {
			return nil, err
		}
		defer bgzfR.Close()
		br = bufio.NewReaderSize(bgzfR, 64*1024)
	} else {
		br = bufio.NewReaderSize(f, 64*1024)
	}

	var lines []string
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if strings.HasPrefix(line, "#") {
				lines = append(lines, line)
				if strings.HasPrefix(line, "#CHROM") {
					break
				}
			} else {
				break
			}
		}
		if err != nil {
			break
		}
	}

	return lines, nil
}

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

// Package refbuild infers the reference genome build a VCF's contigs belong
// to, either from an explicit header directive or by comparing contig
// lengths against a table of known builds.
package refbuild

import "strings"

// Unknown is returned when the build cannot be determined.
const Unknown = "unknown"

// knownBuilds maps a build name to the lengths of its best-known contigs,
// keyed by the bare contig name (no "chr" prefix).
var knownBuilds = map[string]map[string]int64{
	"GRCh37": {
		"1": 249250621, "2": 243199373, "3": 198022430, "4": 191154276,
		"5": 180915260, "6": 171115067, "7": 159138663, "8": 146364022,
		"9": 141213431, "10": 135534747, "X": 155270560, "Y": 59373566,
		"MT": 16569,
	},
	"GRCh38": {
		"1": 248956422, "2": 242193529, "3": 198295559, "4": 190214555,
		"5": 181538259, "6": 170805979, "7": 159345973, "8": 145138636,
		"9": 138394717, "10": 133797422, "X": 156040895, "Y": 57227415,
		"MT": 16569,
	},
	"TAIR10": {
		"1": 30427671, "2": 19698289, "3": 23459830, "4": 18585056, "5": 26975502,
	},
}

// FromHeader normalizes the value of a "##reference=" directive by stripping
// common URL/path prefixes and file-extension suffixes, e.g.
// "file:///data/human_g1k_v37.fasta" -> "human_g1k_v37" or, where the value
// already names a known build, that name verbatim.
func FromHeader(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return Unknown
	}

	if idx := strings.LastIndexAny(v, "/\\"); idx != -1 {
		v = v[idx+1:]
	}
	for _, suffix := range []string{".fasta", ".fa", ".fa.gz", ".fasta.gz"} {
		v = strings.TrimSuffix(v, suffix)
	}

	for name := range knownBuilds {
		if strings.EqualFold(v, name) || strings.Contains(strings.ToLower(v), strings.ToLower(name)) {
			return name
		}
	}

	return v
}

// FromContigLengths infers a build by comparing contig name -> length pairs
// against the known-build table. A build is reported only if a majority of
// the contigs it shares with contigs in the input match exactly.
func FromContigLengths(contigs map[string]int64) string {
	bestBuild := Unknown
	bestScore := 0

	for build, lengths := range knownBuilds {
		compared, matched := 0, 0
		for name, length := range contigs {
			bare := strings.TrimPrefix(name, "chr")
			want, ok := lengths[bare]
			if !ok {
				continue
			}
			compared++
			if want == length {
				matched++
			}
		}
		if compared == 0 || matched*2 <= compared {
			continue
		}
		if matched > bestScore {
			bestScore = matched
			bestBuild = build
		}
	}

	return bestBuild
}

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

package refbuild

import "testing"

func TestFromHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"bare name", "GRCh38", "GRCh38"},
		{"file uri", "file:///data/human_g1k_v37.fasta", "human_g1k_v37"},
		{"path with build substring", "/refs/GRCh37_decoy.fa", "GRCh37"},
		{"empty", "", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromHeader(tt.value); got != tt.want {
				t.Errorf("FromHeader(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFromContigLengths(t *testing.T) {
	tests := []struct {
		name    string
		contigs map[string]int64
		want    string
	}{
		{
			name: "exact GRCh38 match",
			contigs: map[string]int64{
				"chr1": 248956422,
				"chr2": 242193529,
				"X":    156040895,
			},
			want: "GRCh38",
		},
		{
			name: "exact GRCh37 match",
			contigs: map[string]int64{
				"1": 249250621,
				"2": 243199373,
			},
			want: "GRCh37",
		},
		{
			name: "no contig shares a known name",
			contigs: map[string]int64{
				"scaffold_1": 12345,
			},
			want: Unknown,
		},
		{
			name: "majority mismatch",
			contigs: map[string]int64{
				"1": 1,
				"2": 2,
			},
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromContigLengths(tt.contigs); got != tt.want {
				t.Errorf("FromContigLengths(%v) = %q, want %q", tt.contigs, got, tt.want)
			}
		})
	}
}

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

package stats

import (
	"strings"
	"testing"

	"github.com/brentp/vcfgo"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		ref, alt string
		want     VariantType
	}{
		{"A", "G", SNP},
		{"A", "GG", Insertion},
		{"AG", "A", Deletion},
		{"AGT", "CCA", MNP},
		{"AG", "CCA", Complex},
	}

	for _, tt := range tests {
		if got := Classify(tt.ref, tt.alt); got != tt.want {
			t.Errorf("Classify(%q, %q) = %v, want %v", tt.ref, tt.alt, got, tt.want)
		}
	}
}

const fixtureVCF = `##fileformat=VCFv4.2
##reference=GRCh37
##contig=<ID=1,length=249250621>
##INFO=<ID=DP,Number=1,Type=Integer,Description="Depth">
##FILTER=<ID=PASS,Description="All filters passed">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
1	100	rs1	A	G	50	PASS	DP=10
1	200	rs2	A	G,T	60	PASS	DP=20
1	300	.	AG	A	70	PASS	DP=30
2	100	rs4	G	A	40	PASS	DP=5
`

func TestAggregatorFinish(t *testing.T) {
	vr, err := vcfgo.NewReader(strings.NewReader(fixtureVCF), false)
	if err != nil {
		t.Fatalf("vcfgo.NewReader() error: %v", err)
	}

	agg := NewAggregator()
	for {
		v := vr.Read()
		if v == nil {
			break
		}
		agg.Add(v)
	}
	if err := vr.Error(); err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	summary := agg.Finish(0)

	if summary.TotalRecords != 4 {
		t.Errorf("TotalRecords = %d, want 4", summary.TotalRecords)
	}
	if summary.ByType[SNP] != 4 {
		t.Errorf("ByType[SNP] = %d, want 4 (pos 200 counts both G and T)", summary.ByType[SNP])
	}
	if summary.ByType[Deletion] != 1 {
		t.Errorf("ByType[Deletion] = %d, want 1", summary.ByType[Deletion])
	}

	if !summary.HasQuality {
		t.Fatalf("HasQuality = false, want true")
	}
	if summary.QualMin != 40 || summary.QualMax != 70 {
		t.Errorf("QualMin/Max = %v/%v, want 40/70", summary.QualMin, summary.QualMax)
	}

	if !summary.HasDepth {
		t.Fatalf("HasDepth = false, want true")
	}
	if summary.DepthMin != 5 || summary.DepthMax != 30 {
		t.Errorf("DepthMin/Max = %v/%v, want 5/30", summary.DepthMin, summary.DepthMax)
	}

	if summary.ByFilter["PASS"] != 4 {
		t.Errorf("ByFilter[PASS] = %d, want 4", summary.ByFilter["PASS"])
	}

	if len(summary.ByChromosome) != 2 {
		t.Fatalf("ByChromosome = %+v, want 2 entries", summary.ByChromosome)
	}
	if summary.ByChromosome[0].Chromosome != "1" || summary.ByChromosome[0].Count != 3 {
		t.Errorf("ByChromosome[0] = %+v, want chrom 1 with count 3", summary.ByChromosome[0])
	}
}

func TestAggregatorFinishTruncatesChromosomes(t *testing.T) {
	agg := NewAggregator()
	vr, err := vcfgo.NewReader(strings.NewReader(fixtureVCF), false)
	if err != nil {
		t.Fatalf("vcfgo.NewReader() error: %v", err)
	}
	for {
		v := vr.Read()
		if v == nil {
			break
		}
		agg.Add(v)
	}

	summary := agg.Finish(1)
	if len(summary.ByChromosome) != 1 {
		t.Fatalf("ByChromosome = %+v, want truncated to 1 entry", summary.ByChromosome)
	}
}

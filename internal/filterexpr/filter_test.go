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

package filterexpr

import (
	"strings"
	"testing"

	"github.com/brentp/vcfgo"
)

const fixtureVCF = `##fileformat=VCFv4.2
##reference=GRCh37
##contig=<ID=1,length=249250621>
##INFO=<ID=DP,Number=1,Type=Integer,Description="Depth">
##FILTER=<ID=PASS,Description="All filters passed">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
1	100	rs1	A	G	50	PASS	DP=10
1	200	rs2	A	G	20	LowQual	DP=5
`

func readFixture(t *testing.T) []*vcfgo.Variant {
	t.Helper()

	vr, err := vcfgo.NewReader(strings.NewReader(fixtureVCF), false)
	if err != nil {
		t.Fatalf("vcfgo.NewReader() error: %v", err)
	}

	var variants []*vcfgo.Variant
	for {
		v := vr.Read()
		if v == nil {
			break
		}
		variants = append(variants, v)
	}
	if err := vr.Error(); err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return variants
}

func TestCompileEmptyExpressionAlwaysAdmits(t *testing.T) {
	pred, err := Compile("")
	if err != nil {
		t.Fatalf("Compile(\"\") error: %v", err)
	}

	for _, v := range readFixture(t) {
		if !pred(v) {
			t.Errorf("empty filter rejected %s:%d", v.Chromosome, v.Pos)
		}
	}
}

func TestCompileQualityThreshold(t *testing.T) {
	pred, err := Compile("qual >= 30")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	variants := readFixture(t)
	if !pred(variants[0]) {
		t.Errorf("qual 50 should pass >= 30")
	}
	if pred(variants[1]) {
		t.Errorf("qual 20 should not pass >= 30")
	}
}

func TestCompileInfoField(t *testing.T) {
	pred, err := Compile("info.DP > 7")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	variants := readFixture(t)
	if !pred(variants[0]) {
		t.Errorf("DP=10 should pass > 7")
	}
	if pred(variants[1]) {
		t.Errorf("DP=5 should not pass > 7")
	}
}

func TestCompileInvalidExpression(t *testing.T) {
	if _, err := Compile("chrom =="); err == nil {
		t.Fatalf("Compile() on malformed expression, want error")
	}
}

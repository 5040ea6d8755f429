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

// Package filterexpr compiles an optional region/stream filter expression
// into an opaque predicate over a variant, compiled once and reused for
// every record a query considers. The expression language itself is an
// external collaborator (github.com/PaesslerAG/gval); this package only
// owns the variant -> parameter-map projection and the compile-once
// contract.
package filterexpr

import (
	"context"
	"fmt"

	"github.com/PaesslerAG/gval"
	"github.com/brentp/vcfgo"
)

// Predicate reports whether a variant should be admitted by a query.
type Predicate func(*vcfgo.Variant) bool

// Always admits every variant; used when no filter expression is given.
func Always(*vcfgo.Variant) bool { return true }

// Compile parses expr once and returns a Predicate that evaluates it
// against each variant's fields. An empty expr returns Always. A
// malformed expr surfaces as an error the caller must report as a
// precondition failure, not a server fault.
func Compile(expr string) (Predicate, error) {
	if expr == "" {
		return Always, nil
	}

	evaluable, err := gval.Full().NewEvaluable(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	ctx := context.Background()
	return func(v *vcfgo.Variant) bool {
		result, err := evaluable.EvalBool(ctx, parameters(v))
		if err != nil {
			return false
		}
		return result
	}, nil
}

// parameters projects the fields of v that a filter expression may
// reference: chrom, pos, qual, filter (the FILTER tags, joined), and
// info.<KEY> for every INFO field present on the record.
func parameters(v *vcfgo.Variant) map[string]interface{} {
	info := make(map[string]interface{})
	if v.Info() != nil {
		for _, key := range v.Info().Keys() {
			if val, err := v.Info().Get(key); err == nil {
				info[key] = val
			}
		}
	}

	qual := 0.0
	if v.Quality != nil {
		qual = float64(*v.Quality)
	}

	return map[string]interface{}{
		"chrom":  v.Chromosome,
		"pos":    v.Pos,
		"id":     v.Id(),
		"qual":   qual,
		"filter": v.Filter,
		"info":   info,
	}
}

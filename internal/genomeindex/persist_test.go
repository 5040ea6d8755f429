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
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAcquireNeverSaveStaysEphemeral(t *testing.T) {
	dir := t.TempDir()
	vcfPath := filepath.Join(dir, "sample.vcf.gz")

	scanned := false
	idx, state, err := Acquire(discardLogger(), vcfPath, Policy{NeverSave: true}, func(b *Builder) error {
		scanned = true
		b.Add("1", 100, chunkAt(0))
		return nil
	})
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if !scanned {
		t.Fatalf("scan callback was not invoked")
	}
	if state != StateEphemeral {
		t.Errorf("state = %v, want %v", state, StateEphemeral)
	}
	if idx == nil {
		t.Fatalf("idx is nil")
	}

	for _, suffix := range []string{".csi", ".tbi"} {
		if _, err := os.Stat(vcfPath + suffix); err == nil {
			t.Errorf("sidecar %s was written despite NeverSave", suffix)
		}
	}
}

func TestAcquireFromBuilderNeverSave(t *testing.T) {
	dir := t.TempDir()
	vcfPath := filepath.Join(dir, "sample.vcf.gz")

	b := NewBuilder()
	b.Add("1", 100, chunkAt(0))

	idx, state, err := AcquireFromBuilder(discardLogger(), vcfPath, Policy{NeverSave: true}, b)
	if err != nil {
		t.Fatalf("AcquireFromBuilder() error: %v", err)
	}
	if state != StateEphemeral {
		t.Errorf("state = %v, want %v", state, StateEphemeral)
	}

	chunks, err := idx.Chunks("1", 100, 100)
	if err != nil || len(chunks) != 1 {
		t.Errorf("Chunks() = %+v, %v", chunks, err)
	}
}

func TestAcquireNeverSaveRescansEachTime(t *testing.T) {
	dir := t.TempDir()
	vcfPath := filepath.Join(dir, "sample.vcf.gz")

	calls := 0
	_, _, err := Acquire(discardLogger(), vcfPath, Policy{NeverSave: true}, func(b *Builder) error {
		calls++
		b.Add("1", 100, chunkAt(0))
		return nil
	})
	if err != nil {
		t.Fatalf("first Acquire() error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one scan, got %d", calls)
	}

	// NeverSave means no sidecar exists on disk, so a second Acquire with
	// NeverSave must scan again rather than finding anything to load.
	_, _, err = Acquire(discardLogger(), vcfPath, Policy{NeverSave: true}, func(b *Builder) error {
		calls++
		b.Add("1", 100, chunkAt(0))
		return nil
	})
	if err != nil {
		t.Fatalf("second Acquire() error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a second scan since NeverSave never persists a sidecar, got %d total calls", calls)
	}
}

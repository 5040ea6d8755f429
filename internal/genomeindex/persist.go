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
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// State names the states a build/load attempt can end in.
type State int

const (
	StateLoaded State = iota
	StateBuilding
	StatePersisted
	StateEphemeral
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateBuilding:
		return "building"
	case StatePersisted:
		return "persisted"
	default:
		return "ephemeral"
	}
}

// Policy controls whether a newly built index may be written to the
// source directory.
type Policy struct {
	// NeverSave forces the Ephemeral terminal state and forbids all
	// writes to the VCF's directory, regardless of build outcome.
	NeverSave bool
}

// Acquire loads the sidecar if present, otherwise scans the file with scan
// to build one in memory, then
// persist it (temp file + atomic rename) unless policy forbids it or a
// concurrent writer wins the race.
func Acquire(logger *slog.Logger, vcfPath string, policy Policy, scan func(*Builder) error) (Index, State, error) {
	if idx, ok, err := Load(vcfPath); err != nil {
		return nil, StateLoaded, err
	} else if ok {
		return idx, StateLoaded, nil
	}

	builder := NewBuilder()
	if err := scan(builder); err != nil {
		return nil, StateBuilding, fmt.Errorf("building genomic index: %w", err)
	}

	return finalize(logger, vcfPath, policy, builder)
}

// AcquireFromBuilder runs the same post-scan race-check, build, and persist
// steps as Acquire, for a caller that already populated builder itself
// (the store folds the genomic-index scan into the same full-file pass
// the identifier index needs, rather than scanning twice).
// The caller must have confirmed no sidecar existed before it started
// scanning.
func AcquireFromBuilder(logger *slog.Logger, vcfPath string, policy Policy, builder *Builder) (Index, State, error) {
	return finalize(logger, vcfPath, policy, builder)
}

// finalize re-checks for a concurrently-written sidecar, and if none won the
// race, builds and (policy permitting) persists builder's accumulated
// entries.
func finalize(logger *slog.Logger, vcfPath string, policy Policy, builder *Builder) (Index, State, error) {
	// The sidecar may have appeared while we were scanning; a concurrent
	// process that finished first wins and we discard our work.
	if idx, ok, err := Load(vcfPath); err == nil && ok {
		logger.Debug("genomic index appeared during build, discarding in-memory copy", "path", vcfPath)
		return idx, StateLoaded, nil
	}

	built := builder.Build()

	if policy.NeverSave {
		return built, StateEphemeral, nil
	}

	persisted, state, err := persist(logger, vcfPath, built)
	if err != nil {
		// Transient infrastructure failure: log and keep serving from the
		// in-memory index rather than failing the query
		// path.
		logger.Warn("could not persist genomic index, continuing with in-memory copy", "path", vcfPath, "error", err)
		return built, StateEphemeral, nil
	}

	return persisted, state, nil
}

// persist writes built to a temp file beside target and atomically renames
// it into place. If a concurrent writer's rename lands first, the target
// that won is loaded and returned instead (StateLoaded).
func persist(logger *slog.Logger, vcfPath string, built Index) (Index, State, error) {
	target := vcfPath + built.Kind().sidecarSuffix()
	tmp := target + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			// Another process is mid-build; fall back to re-checking the
			// target rather than colliding on the same temp name.
			if idx, ok, loadErr := Load(vcfPath); loadErr == nil && ok {
				return idx, StateLoaded, nil
			}
			return built, StateEphemeral, nil
		}
		return nil, StateBuilding, fmt.Errorf("creating temp index file: %w", err)
	}

	if err := built.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, StateBuilding, fmt.Errorf("writing temp index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, StateBuilding, fmt.Errorf("closing temp index file: %w", err)
	}

	// A concurrent writer's rename may have landed while we were writing;
	// its sidecar wins and our temp copy is discarded.
	if idx, ok, loadErr := Load(vcfPath); loadErr == nil && ok {
		os.Remove(tmp)
		return idx, StateLoaded, nil
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return nil, StateBuilding, fmt.Errorf("renaming index into place: %w", err)
	}

	logger.Debug("persisted genomic index", "path", target, "kind", built.Kind())
	return built, StatePersisted, nil
}

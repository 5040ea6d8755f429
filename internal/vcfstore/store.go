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

// Package vcfstore owns the VCF file handle, the parsed header, and both
// indices, and serves four query primitives: by position, by region, by
// identifier, and header access. All shared access is mediated by a
// single mutex, taken for the duration of one primitive operation.
package vcfstore

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/biogo/hts/bgzf"
	"github.com/brentp/vcfgo"

	"github.com/zymatik-com/vcfserver/internal/genomeindex"
	"github.com/zymatik-com/vcfserver/internal/idindex"
)

// Policy configures index acquisition at open time.
type Policy struct {
	// NeverSaveIndex forbids writing sidecar index files.
	NeverSaveIndex bool
	// ShowProgress reports in-memory index build progress via a progress
	// bar; no terminal check is made.
	ShowProgress bool
}

// Store owns a single open VCF file for the lifetime of the process.
type Store struct {
	mu sync.Mutex

	path       string
	compressed bool
	logger     *slog.Logger

	file       *os.File
	bgzfReader *bgzf.Reader
	vcfReader  *vcfgo.Reader

	rawHeader string
	contigs   []Contig
	contigSet map[string]struct{}

	referenceBuild string

	genomic      genomeindex.Index
	genomicState genomeindex.State

	ids      *idindex.Index
	idsExist bool

	// plainVariants holds every record, in file order, for uncompressed
	// inputs, which are indexed only in memory and have no BGZF
	// virtual offsets to seek with.
	plainVariants []*vcfgo.Variant
}

// Open opens path (BGZF-compressed or plain text), parses its header
// exactly once, and acquires both indices per policy. File open failure
// and header-parse failure are startup-fatal.
func Open(logger *slog.Logger, path string, policy Policy) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vcf file: %w", err)
	}

	compressed, err := isBGZF(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("probing vcf file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewinding vcf file: %w", err)
	}

	s := &Store{
		path:       path,
		compressed: compressed,
		logger:     logger,
		file:       f,
	}

	if err := s.openHeader(); err != nil {
		f.Close()
		return nil, err
	}

	if !compressed {
		if err := s.loadPlainBody(); err != nil {
			f.Close()
			return nil, fmt.Errorf("reading uncompressed vcf body: %w", err)
		}
	}

	s.contigSet = make(map[string]struct{}, len(s.contigs))

	if err := s.acquireIndices(policy); err != nil {
		f.Close()
		return nil, err
	}

	for _, name := range s.bodyReferenceNames() {
		s.contigSet[name] = struct{}{}
	}

	return s, nil
}

// isBGZF peeks at the leading bytes to distinguish a BGZF (gzip-family)
// stream from plain text, without consuming the reader's position.
func isBGZF(f *os.File) (bool, error) {
	magic := make([]byte, 2)
	n, err := f.ReadAt(magic, 0)
	if err != nil && n < 2 {
		return false, err
	}
	return magic[0] == 0x1f && magic[1] == 0x8b, nil
}

// bodyReferenceNames lists every chromosome actually present in the body,
// per whichever representation backs this store.
func (s *Store) bodyReferenceNames() []string {
	if !s.compressed {
		seen := make(map[string]struct{})
		var names []string
		for _, v := range s.plainVariants {
			if _, ok := seen[v.Chromosome]; !ok {
				seen[v.Chromosome] = struct{}{}
				names = append(names, v.Chromosome)
			}
		}
		return names
	}
	return s.genomic.References()
}

// Close releases the store's file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bgzfReader != nil {
		s.bgzfReader.Close()
	}
	return s.file.Close()
}

// ReferenceBuild reports the inferred reference genome build.
func (s *Store) ReferenceBuild() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.referenceBuild
}

func (s *Store) openHeader() error {
	if s.compressed {
		br, err := bgzf.NewReader(s.file, 0)
		if err != nil {
			return fmt.Errorf("opening bgzf stream: %w", err)
		}
		s.bgzfReader = br

		vr, err := vcfgo.NewReader(br, false)
		if err != nil {
			return fmt.Errorf("parsing vcf header: %w", err)
		}
		s.vcfReader = vr
	} else {
		vr, err := vcfgo.NewReader(bufio.NewReaderSize(s.file, 64*1024), false)
		if err != nil {
			return fmt.Errorf("parsing vcf header: %w", err)
		}
		s.vcfReader = vr
	}

	s.loadHeaderMetadata()
	return nil
}

// loadPlainBody reads every remaining record from the uncompressed file
// into memory, in file order, the "indexed only in memory" representation
// for uncompressed inputs.
func (s *Store) loadPlainBody() error {
	for {
		v := s.vcfReader.Read()
		if v == nil {
			break
		}
		s.plainVariants = append(s.plainVariants, v)
	}
	if err := s.vcfReader.Error(); err != nil {
		return err
	}
	return nil
}

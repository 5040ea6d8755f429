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

package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zymatik-com/vcfserver/internal/stats"
	"github.com/zymatik-com/vcfserver/internal/vcfstore"
)

// registerTools wires every tool in the surface table onto the mcp-go
// server, with descriptions sourced from the generated tooldocs.
func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("query_by_position",
		mcp.WithDescription(toolDoc("query_by_position")),
		mcp.WithString("chrom", mcp.Required()),
		mcp.WithNumber("pos", mcp.Required()),
	), s.wrap("query_by_position", s.queryByPosition))

	s.mcp.AddTool(mcp.NewTool("query_by_region",
		mcp.WithDescription(toolDoc("query_by_region")),
		mcp.WithString("chrom", mcp.Required()),
		mcp.WithNumber("start", mcp.Required()),
		mcp.WithNumber("end", mcp.Required()),
		mcp.WithString("filter"),
	), s.wrap("query_by_region", s.queryByRegion))

	s.mcp.AddTool(mcp.NewTool("query_by_id",
		mcp.WithDescription(toolDoc("query_by_id")),
		mcp.WithString("id", mcp.Required()),
	), s.wrap("query_by_id", s.queryByID))

	s.mcp.AddTool(mcp.NewTool("get_vcf_header",
		mcp.WithDescription(toolDoc("get_vcf_header")),
		mcp.WithString("substring"),
	), s.wrap("get_vcf_header", s.getVCFHeader))

	s.mcp.AddTool(mcp.NewTool("start_region_query",
		mcp.WithDescription(toolDoc("start_region_query")),
		mcp.WithString("chrom", mcp.Required()),
		mcp.WithNumber("start", mcp.Required()),
		mcp.WithNumber("end", mcp.Required()),
		mcp.WithString("filter"),
	), s.wrap("start_region_query", s.startRegionQuery))

	s.mcp.AddTool(mcp.NewTool("get_next_variant",
		mcp.WithDescription(toolDoc("get_next_variant")),
		mcp.WithString("session_key", mcp.Required()),
	), s.wrap("get_next_variant", s.getNextVariant))

	s.mcp.AddTool(mcp.NewTool("close_query_session",
		mcp.WithDescription(toolDoc("close_query_session")),
		mcp.WithString("session_key", mcp.Required()),
	), s.wrap("close_query_session", s.closeQuerySession))

	s.mcp.AddTool(mcp.NewTool("get_statistics",
		mcp.WithDescription(toolDoc("get_statistics")),
		mcp.WithNumber("max_chromosomes"),
	), s.wrap("get_statistics", s.getStatistics))
}

// samplePayload is one sample column's FORMAT fields, keyed by FORMAT tag
// (e.g. "GT", "DP", "GQ").
type samplePayload struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

type variantPayload struct {
	Chrom   string                 `json:"chrom"`
	Pos     uint64                 `json:"pos"`
	ID      string                 `json:"id,omitempty"`
	Ref     string                 `json:"ref"`
	Alt     []string               `json:"alt"`
	Qual    *float64               `json:"qual,omitempty"`
	Filter  string                 `json:"filter"`
	Info    map[string]interface{} `json:"info,omitempty"`
	Samples []samplePayload        `json:"samples,omitempty"`
}

func toPayload(v *vcfstore.Variant) variantPayload {
	p := variantPayload{
		Chrom:  v.Chromosome,
		Pos:    v.Pos,
		ID:     v.Id(),
		Ref:    v.Ref(),
		Alt:    v.Alt(),
		Filter: v.Filter,
	}

	if v.Quality != nil {
		q := float64(*v.Quality)
		p.Qual = &q
	}

	if info := v.Info(); info != nil {
		if keys := info.Keys(); len(keys) > 0 {
			p.Info = make(map[string]interface{}, len(keys))
			for _, key := range keys {
				if val, err := info.Get(key); err == nil {
					p.Info[key] = val
				}
			}
		}
	}

	if len(v.Samples) > 0 {
		p.Samples = make([]samplePayload, len(v.Samples))
		for i, sample := range v.Samples {
			name := fmt.Sprintf("sample_%d", i)
			if v.Header != nil && i < len(v.Header.SampleNames) {
				name = v.Header.SampleNames[i]
			}
			p.Samples[i] = samplePayload{Name: name, Fields: sample.Fields}
		}
	}

	return p
}

func toPayloads(vs []*vcfstore.Variant) []variantPayload {
	out := make([]variantPayload, len(vs))
	for i, v := range vs {
		out[i] = toPayload(v)
	}
	return out
}

type positionResult struct {
	MatchedChrom   string           `json:"matched_chrom"`
	ReferenceBuild string           `json:"reference_genome"`
	Variants       []variantPayload `json:"variants"`
}

func (s *Server) queryByPosition(_ context.Context, req mcp.CallToolRequest) (interface{}, error) {
	chrom := req.GetString("chrom", "")
	pos := int(req.GetFloat("pos", 0))

	matched, variants, err := s.store.QueryPosition(chrom, pos)
	if err != nil {
		var nf vcfstore.NotFound
		if errors.As(err, &nf) {
			return notFoundPayload(nf), nil
		}
		return nil, err
	}

	return positionResult{
		MatchedChrom:   matched,
		ReferenceBuild: s.store.ReferenceBuild(),
		Variants:       toPayloads(variants),
	}, nil
}

type regionResult struct {
	MatchedChrom string           `json:"matched_chrom"`
	Variants     []variantPayload `json:"variants"`
}

func (s *Server) queryByRegion(_ context.Context, req mcp.CallToolRequest) (interface{}, error) {
	chrom := req.GetString("chrom", "")
	start := int(req.GetFloat("start", 0))
	end := int(req.GetFloat("end", 0))

	filter, err := compileFilter(req)
	if err != nil {
		return nil, err
	}

	matched, variants, err := s.store.QueryRegion(chrom, start, end, filter)
	if err != nil {
		var nf vcfstore.NotFound
		if errors.As(err, &nf) {
			return notFoundPayload(nf), nil
		}
		return nil, err
	}

	return regionResult{MatchedChrom: matched, Variants: toPayloads(variants)}, nil
}

type idResult struct {
	Variants []variantPayload `json:"variants"`
}

func (s *Server) queryByID(_ context.Context, req mcp.CallToolRequest) (interface{}, error) {
	id := req.GetString("id", "")

	variants, err := s.store.QueryID(id)
	if err != nil {
		return nil, err
	}

	return idResult{Variants: toPayloads(variants)}, nil
}

type headerResult struct {
	Text           string `json:"text"`
	LineCount      int    `json:"line_count"`
	ReferenceBuild string `json:"reference_build"`
}

func (s *Server) getVCFHeader(_ context.Context, req mcp.CallToolRequest) (interface{}, error) {
	substring := req.GetString("substring", "")
	h := s.store.GetHeader(substring)
	return headerResult{Text: h.Text, LineCount: h.LineCount, ReferenceBuild: h.ReferenceBuild}, nil
}

type streamResult struct {
	Variant        *variantPayload `json:"variant,omitempty"`
	SessionKey     string          `json:"session_key,omitempty"`
	More           bool            `json:"more"`
	ReferenceBuild string          `json:"reference_genome"`
	MatchedChrom   string          `json:"matched_chrom"`
}

func (s *Server) startRegionQuery(_ context.Context, req mcp.CallToolRequest) (interface{}, error) {
	chrom := req.GetString("chrom", "")
	start := int(req.GetFloat("start", 0))
	end := int(req.GetFloat("end", 0))

	filter, err := compileFilter(req)
	if err != nil {
		return nil, err
	}

	result, err := s.sessions.StartStream(chrom, start, end, filter)
	if err != nil {
		var nf vcfstore.NotFound
		if errors.As(err, &nf) {
			return notFoundPayload(nf), nil
		}
		return nil, err
	}

	out := streamResult{
		SessionKey:     result.SessionKey,
		More:           result.More,
		ReferenceBuild: result.ReferenceBuild,
		MatchedChrom:   result.MatchedChrom,
	}
	if result.Variant != nil {
		p := toPayload(result.Variant)
		out.Variant = &p
	}
	return out, nil
}

func (s *Server) getNextVariant(_ context.Context, req mcp.CallToolRequest) (interface{}, error) {
	key := req.GetString("session_key", "")

	result, ok, err := s.sessions.Next(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("unknown or expired session key")
	}

	out := streamResult{
		SessionKey:     result.SessionKey,
		More:           result.More,
		ReferenceBuild: result.ReferenceBuild,
		MatchedChrom:   result.MatchedChrom,
	}
	if result.Variant != nil {
		p := toPayload(result.Variant)
		out.Variant = &p
	}
	return out, nil
}

type closeResult struct {
	Closed bool `json:"closed"`
}

func (s *Server) closeQuerySession(_ context.Context, req mcp.CallToolRequest) (interface{}, error) {
	key := req.GetString("session_key", "")
	return closeResult{Closed: s.sessions.Close(key)}, nil
}

func (s *Server) getStatistics(_ context.Context, req mcp.CallToolRequest) (interface{}, error) {
	max := int(req.GetFloat("max_chromosomes", float64(stats.DefaultMaxChromosomes)))

	summary, err := s.store.Statistics(max)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

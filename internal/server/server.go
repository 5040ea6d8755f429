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

// Package server adapts the query core onto the Model Context Protocol:
// eight tools registered on an mcp-go server, served over stdio or an SSE
// endpoint. Handlers are thin: decode parameters, call into vcfstore
// or sessions, encode the structured result or structured error — and are
// the only place this codebase talks mcp-go's vocabulary.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zymatik-com/vcfserver/internal/filterexpr"
	"github.com/zymatik-com/vcfserver/internal/sessions"
	"github.com/zymatik-com/vcfserver/internal/vcfstore"
)

// version is the adapter's self-reported protocol version string, bumped
// alongside user-visible tool-surface changes.
const version = "0.1.0"

// Config assembles the immutable settings the adapter needs at
// construction.
type Config struct {
	Debug bool
}

// Server owns the mcp-go server instance and the query core it fronts.
type Server struct {
	mcp      *server.MCPServer
	store    *vcfstore.Store
	sessions *sessions.Manager
	logger   *slog.Logger
	debug    bool
}

// New builds a Server with all eight tools registered.
func New(logger *slog.Logger, store *vcfstore.Store, mgr *sessions.Manager, cfg Config) *Server {
	s := &Server{
		mcp:      server.NewMCPServer("vcfserver", version, server.WithToolCapabilities(true)),
		store:    store,
		sessions: mgr,
		logger:   logger,
		debug:    cfg.Debug,
	}

	s.registerTools()
	return s
}

// ServeStdio runs the server over line-framed JSON-RPC on stdio, the
// mcp-go SDK's default transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ServeSSE runs the server over an HTTP event-stream endpoint bound to
// addr, selected by the --sse startup flag.
func (s *Server) ServeSSE(addr string) error {
	sse := server.NewSSEServer(s.mcp)
	return sse.Start(addr)
}

// wrap decorates a handler with the --debug timing/size-logging behavior
// and encodes its result (or structured error) the way every tool handler
// needs to.
func (s *Server) wrap(name string, fn func(context.Context, mcp.CallToolRequest) (interface{}, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		result, err := fn(ctx, req)

		elapsed := time.Since(start)

		if err != nil {
			if s.debug {
				s.logger.Debug("tool call failed", "tool", name, "elapsed", elapsed, "error", err)
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encoding %s result: %w", name, err)
		}

		if s.debug {
			s.logger.Debug("tool call completed", "tool", name, "elapsed", elapsed, "resultBytes", len(payload))
		}

		return mcp.NewToolResultText(string(payload)), nil
	}
}

// compileFilter compiles an optional filter argument, surfacing malformed
// expressions as a precondition failure rather than a server fault.
func compileFilter(req mcp.CallToolRequest) (filterexpr.Predicate, error) {
	expr := req.GetString("filter", "")
	return filterexpr.Compile(expr)
}

// chromErrorPayload renders a NotFound into the structured shape every
// chromosome-taking tool promises ("up to five example chromosome
// names and the alternate-name suggestion").
type chromErrorPayload struct {
	Chrom                     string   `json:"chrom"`
	AvailableChromosomeSample []string `json:"available_chromosomes_sample"`
	Suggestion                string   `json:"suggestion"`
}

func notFoundPayload(nf vcfstore.NotFound) chromErrorPayload {
	return chromErrorPayload{
		Chrom:                     nf.Chrom,
		AvailableChromosomeSample: nf.AvailableChromosomeSample,
		Suggestion:                nf.Suggestion,
	}
}

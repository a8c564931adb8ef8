// =============================================================================
// QDX Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the QDX Converter CLI. It delegates to the
// Cobra commands in the cmd package.
//
// USAGE:
//   qdx parse      - Extract tickets from every log in the input directory
//   qdx inspect    - Dump the slot headers of one log
//   qdx version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/                : CLI command definitions (Cobra)
//   - internal/qdx        : slot, tail, BCD and record decoders; opcode table
//   - internal/ticket     : ticket types and the session aggregator
//   - internal/parser     : the stream scanner
//   - internal/export     : csv, xlsx and xml ticket writers
//   - internal/converter  : per-file pipeline and batch runner
//   - pkg/utils           : file discovery, archival, naming, summaries
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/qdx-converter/cmd"
)

func main() {
	cmd.Execute()
}

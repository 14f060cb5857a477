// Package chunker splits repository files into overlapping text chunks
// and extracts structural metadata from them.
//
// # Splitting
//
// The splitter cuts at language-aware boundaries, preferring declaration
// starts, then blank lines, then line breaks, then single spaces, with a
// hard cut as the last resort:
//
//	s := chunker.NewSplitter(800, 120) // ~15% overlap
//	chunks := s.Split(content, ".py")
//
// Consecutive chunks of the same file share an exact overlap region: the
// last Overlap bytes of chunk i are the first Overlap bytes of chunk i+1.
// Extensions without a dedicated separator table fall back to the generic
// blank-line/newline/space ordering.
//
// # Metadata
//
// ExtractMetadata returns function, class, and import names plus a
// complexity proxy (a count of control-flow constructs, not cyclomatic
// complexity). Go files use an exact go/ast walk; every other language
// uses regex pattern matching over common declaration syntaxes. Both
// strategies sit behind the same function, selected by extension.
//
// ExtractChunkMetadata re-scans a single chunk's text so names are
// attributed to the chunk they appear in, not to the whole file.
// Extraction failures degrade to empty metadata and never abort chunking.
package chunker

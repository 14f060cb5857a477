package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortContentSingleChunk(t *testing.T) {
	s := NewSplitter(800, 120)

	chunks := s.Split("short file", ".txt")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short file", chunks[0])
}

func TestSplit_EmptyContent(t *testing.T) {
	s := NewSplitter(800, 120)
	assert.Empty(t, s.Split("", ".py"))
}

func TestSplit_ChunkCountMatchesFormula(t *testing.T) {
	// Separator-free content forces hard cuts, so the count follows
	// ceil((L-O)/(S-O)) exactly.
	s := NewSplitter(100, 15)
	content := strings.Repeat("a", 1000)

	chunks := s.Split(content, ".txt")

	want := (1000 - 15 + (100 - 15) - 1) / (100 - 15) // ceil((L-O)/(S-O))
	assert.Len(t, chunks, want)
}

func TestSplit_ChunkCountNearFormulaWithSeparators(t *testing.T) {
	s := NewSplitter(200, 30)
	content := strings.Repeat("some words here\n", 200) // 3200 chars

	chunks := s.Split(content, ".txt")

	l, size, overlap := len(content), 200, 30
	want := (l - overlap + (size - overlap) - 1) / (size - overlap)
	assert.InDelta(t, want, len(chunks), 3)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), size)
	}
}

func TestSplit_ConsecutiveChunksShareOverlap(t *testing.T) {
	s := NewSplitter(100, 20)
	content := strings.Repeat("alpha beta gamma delta ", 50)

	chunks := s.Split(content, ".txt")
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		overlap := prev[len(prev)-s.Overlap():]
		assert.True(t, strings.HasPrefix(cur, overlap),
			"chunk %d does not start with the previous chunk's tail", i)
	}
}

func TestSplit_ReassemblesToOriginal(t *testing.T) {
	s := NewSplitter(100, 20)
	content := strings.Repeat("the quick brown fox jumps over the lazy dog\n", 30)

	chunks := s.Split(content, ".txt")
	require.NotEmpty(t, chunks)

	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		rebuilt += chunks[i][s.Overlap():]
	}
	assert.Equal(t, content, rebuilt)
}

func TestSplit_PrefersPythonDeclarationBoundaries(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("def handler_")
		b.WriteString(strings.Repeat("x", i%5))
		b.WriteString("(request):\n    return request.value + 1\n\n")
	}
	content := b.String()

	s := NewSplitter(300, 45)
	chunks := s.Split(content, ".py")
	require.Greater(t, len(chunks), 2)

	// Interior chunks should end right at a declaration start, meaning
	// the next window begins with overlap followed by "def ".
	snapped := 0
	for _, c := range chunks[:len(chunks)-1] {
		if strings.HasSuffix(c, "\ndef ") || strings.HasSuffix(c, "\n\n") {
			snapped++
		}
	}
	assert.Greater(t, snapped, 0, "no chunk boundary snapped to a preferred separator")
}

func TestSplit_IndicesContiguousAndOrdered(t *testing.T) {
	s := NewSplitter(50, 7)
	content := strings.Repeat("z", 500)

	chunks := s.Split(content, ".bin")
	for i := 1; i < len(chunks); i++ {
		// Ordered reconstruction implies contiguity; verify positions.
		assert.NotEmpty(t, chunks[i])
	}
	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		rebuilt += chunks[i][s.Overlap():]
	}
	assert.Equal(t, content, rebuilt)
}

func TestNewSplitter_SanitizesArguments(t *testing.T) {
	s := NewSplitter(0, -5)
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultOverlap, s.Overlap())

	// Overlap >= half the chunk size would stall the cursor.
	s = NewSplitter(100, 90)
	assert.Equal(t, 15, s.Overlap())
}

func TestExtractMetadata_GoExact(t *testing.T) {
	content := `package web

import (
	"fmt"
	"net/http"
)

type Server struct {
	addr string
}

type Handler interface {
	Handle() error
}

func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Run() error {
	for i := 0; i < 3; i++ {
		if i > 1 {
			fmt.Println(i)
		}
	}
	switch s.addr {
	case "":
		return http.ErrServerClosed
	}
	return nil
}
`
	meta := ExtractMetadata(content, ".go")

	assert.Equal(t, []string{"NewServer", "Run"}, meta.Functions)
	assert.Equal(t, []string{"Server", "Handler"}, meta.Classes)
	assert.Equal(t, []string{"fmt", "net/http"}, meta.Imports)
	assert.Equal(t, 3, meta.ComplexityScore) // for, if, switch
	assert.Greater(t, meta.TotalLines, 20)
	assert.Greater(t, meta.CodeLines, 15)
}

func TestExtractMetadata_GoUnparseableFallsBack(t *testing.T) {
	content := "func broken( {\nimport fmt\n"

	meta := ExtractMetadata(content, ".go")
	// Pattern strategy still sees the function keyword.
	assert.Contains(t, meta.Functions, "broken")
	assert.Equal(t, 3, meta.TotalLines) // trailing newline yields an empty last line
}

func TestExtractMetadata_PythonPatterns(t *testing.T) {
	content := `import os
from pathlib import Path

class JobRunner:
    def start(self):
        if self.ready:
            for task in self.tasks:
                try:
                    task.run()
                except ValueError:
                    pass

def main():
    pass
`
	meta := ExtractMetadata(content, ".py")

	assert.Equal(t, []string{"start", "main"}, meta.Functions)
	assert.Equal(t, []string{"JobRunner"}, meta.Classes)
	assert.Equal(t, []string{"os", "pathlib"}, meta.Imports)
	// if, for, try, except
	assert.Equal(t, 4, meta.ComplexityScore)
}

func TestExtractMetadata_JavaScriptPatterns(t *testing.T) {
	content := `const express = require('express')
import axios from "axios"

export class ApiClient {
}

function fetchUsers() {
  while (retries > 0) {
    if (done) break
  }
}
`
	meta := ExtractMetadata(content, ".js")

	assert.Contains(t, meta.Functions, "fetchUsers")
	assert.Contains(t, meta.Classes, "ApiClient")
	assert.Contains(t, meta.Imports, "axios")
	assert.GreaterOrEqual(t, meta.ComplexityScore, 2)
}

func TestExtractMetadata_GarbageIsHarmless(t *testing.T) {
	meta := ExtractMetadata("\x00\x01\x02 ???", ".xyz")
	assert.Empty(t, meta.Functions)
	assert.Empty(t, meta.Classes)
	assert.Equal(t, 1, meta.TotalLines)
}

func TestExtractChunkMetadata_AttributesNamesToChunk(t *testing.T) {
	chunk1 := "import os\n\ndef first():\n    pass\n"
	chunk2 := "def second():\n    pass\n\nclass Late:\n    pass\n"

	f1, c1, i1 := ExtractChunkMetadata(chunk1)
	assert.Equal(t, []string{"first"}, f1)
	assert.Empty(t, c1)
	assert.Equal(t, []string{"os"}, i1)

	f2, c2, i2 := ExtractChunkMetadata(chunk2)
	assert.Equal(t, []string{"second"}, f2)
	assert.Equal(t, []string{"Late"}, c2)
	assert.Empty(t, i2)
}

func TestCountLines(t *testing.T) {
	total, code := countLines("a\n\nb\n")
	assert.Equal(t, 4, total) // trailing newline yields an empty last line
	assert.Equal(t, 2, code)
}

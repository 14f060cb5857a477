package sampler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/repohealth/pkg/types"
)

func chunk(path string, index, total int) types.ChunkRecord {
	return types.ChunkRecord{
		ID:      fmt.Sprintf("%s_%d", path, index),
		Content: fmt.Sprintf("content of %s chunk %d", path, index),
		Meta:    types.ChunkMeta{FilePath: path, ChunkIndex: index, TotalChunks: total},
	}
}

func fileChunks(path string, n int) []types.ChunkRecord {
	out := make([]types.ChunkRecord, n)
	for i := range out {
		out[i] = chunk(path, i, n)
	}
	return out
}

func TestSelect_Empty(t *testing.T) {
	assert.Nil(t, Select(nil, 10))
}

func TestSelect_NeverExceedsBudget(t *testing.T) {
	var chunks []types.ChunkRecord
	for i := 0; i < 30; i++ {
		chunks = append(chunks, fileChunks(fmt.Sprintf("pkg%d/file%d.go", i, i), 3)...)
	}

	samples := Select(chunks, 5)
	assert.Len(t, samples, 5)
}

func TestSelect_NoDuplicates(t *testing.T) {
	var chunks []types.ChunkRecord
	chunks = append(chunks, fileChunks("main.go", 4)...)
	chunks = append(chunks, fileChunks("src/deep/other.txt", 4)...)

	samples := Select(chunks, 20)

	seen := make(map[string]bool)
	for _, s := range samples {
		key := fmt.Sprintf("%s#%d", s.Meta.FilePath, s.Meta.ChunkIndex)
		assert.False(t, seen[key], "duplicate sample %s", key)
		seen[key] = true
	}
}

func TestSelect_Deterministic(t *testing.T) {
	var chunks []types.ChunkRecord
	for i := 0; i < 10; i++ {
		chunks = append(chunks, fileChunks(fmt.Sprintf("dir%d/file%d.py", i%3, i), 2)...)
	}

	first := Select(chunks, 8)
	second := Select(chunks, 8)
	assert.Equal(t, first, second)
}

func TestSelect_ImportantFilesFirst(t *testing.T) {
	var chunks []types.ChunkRecord
	chunks = append(chunks, fileChunks("vendor/generated/zz_output.txt", 1)...)
	chunks = append(chunks, fileChunks("main.go", 1)...)

	samples := Select(chunks, 1)
	require.Len(t, samples, 1)
	assert.Equal(t, "main.go", samples[0].Meta.FilePath)
	assert.GreaterOrEqual(t, samples[0].FileScore, 10)
}

func TestSelect_SecondChunkForImportantFiles(t *testing.T) {
	var chunks []types.ChunkRecord
	chunks = append(chunks, fileChunks("server.py", 3)...)
	chunks = append(chunks, fileChunks("notes.txt", 3)...)

	samples := Select(chunks, 4)

	var serverIndices []int
	for _, s := range samples {
		if s.Meta.FilePath == "server.py" {
			serverIndices = append(serverIndices, s.Meta.ChunkIndex)
		}
	}
	assert.Equal(t, []int{0, 1}, serverIndices)
}

func TestSelect_EveryFileContributesFirstChunk(t *testing.T) {
	var chunks []types.ChunkRecord
	chunks = append(chunks, fileChunks("main.go", 1)...)
	chunks = append(chunks, fileChunks("internal/deep/worker.txt", 5)...)
	chunks = append(chunks, fileChunks("docs/guide.txt", 5)...)

	samples := Select(chunks, 10)

	byFile := make(map[string][]int)
	for _, s := range samples {
		byFile[s.Meta.FilePath] = append(byFile[s.Meta.FilePath], s.Meta.ChunkIndex)
	}
	// Unimportant files contribute only their first chunk; once every
	// directory is represented the middle-chunk pass adds nothing.
	assert.Equal(t, []int{0}, byFile["main.go"])
	assert.Equal(t, []int{0}, byFile["internal/deep/worker.txt"])
	assert.Equal(t, []int{0}, byFile["docs/guide.txt"])
}

func TestSelect_MiddleChunkRequiresMoreThanTwoChunks(t *testing.T) {
	var chunks []types.ChunkRecord
	chunks = append(chunks, fileChunks("main.go", 1)...)
	chunks = append(chunks, fileChunks("docs/short.txt", 2)...)

	samples := Select(chunks, 10)

	for _, s := range samples {
		if s.Meta.FilePath == "docs/short.txt" {
			assert.Equal(t, 0, s.Meta.ChunkIndex, "two-chunk files only contribute their first chunk")
		}
	}
}

func TestSelect_ScoreTiesKeepEnumerationOrder(t *testing.T) {
	var chunks []types.ChunkRecord
	chunks = append(chunks, fileChunks("alpha.txt", 1)...)
	chunks = append(chunks, fileChunks("beta.txt", 1)...)

	samples := Select(chunks, 1)
	require.Len(t, samples, 1)
	assert.Equal(t, "alpha.txt", samples[0].Meta.FilePath)
}

func TestSelect_ThreeFileRepoScenario(t *testing.T) {
	var chunks []types.ChunkRecord
	chunks = append(chunks, fileChunks("main.py", 1)...)
	chunks = append(chunks, fileChunks("config.yaml", 1)...)
	chunks = append(chunks, fileChunks("src/utils/helpers/math.py", 1)...)

	samples := Select(chunks, 2)
	require.Len(t, samples, 2)

	assert.Equal(t, "main.py", samples[0].Meta.FilePath)
	assert.Equal(t, "config.yaml", samples[1].Meta.FilePath)
}

func TestScorePath(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"main.go", 15},                 // main keyword + root level
		{"src/index.js", 18},            // index keyword + root level + src
		{"docs/readme.txt", 5},          // root level only
		{"a/b/c/notes.txt", 0},          // deep, no keywords
		{"src/api/controller.py", 23},   // api + controller + src
		{"lib/client/handler.rb", 23},   // client + handler + lib (first core dir)
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, scorePath(tt.path))
		})
	}
}

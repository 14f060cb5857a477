// Package sampler selects a bounded, diverse set of chunks to represent
// a repository to the summarizer. Selection is deterministic: important
// files (by path heuristics) come first, then a second pass adds a
// middle chunk from directories not yet represented.
package sampler

import (
	"path"
	"sort"
	"strings"

	"github.com/dshills/repohealth/pkg/types"
)

// DefaultMaxSamples bounds the selection when the caller passes a
// non-positive budget.
const DefaultMaxSamples = 25

// Path substrings that mark a file as likely important. Each match adds
// importanceWeight to the file's score.
var importanceKeywords = []string{
	"main", "index", "app", "server", "client", "config", "setup",
	"init", "routes", "api", "controller", "service", "model", "handler",
}

const (
	importanceWeight = 10
	rootLevelWeight  = 5
	coreDirWeight    = 3
)

var coreDirs = map[string]bool{
	"src": true, "lib": true, "app": true, "server": true, "client": true,
}

// fileGroup is one file's chunks in chunk-index order, with its score
// and discovery position for stable tie-breaking.
type fileGroup struct {
	path   string
	chunks []types.ChunkRecord
	score  int
	order  int
}

// Select picks at most maxSamples chunks from the collection's records.
// Pass 1 takes each file's first chunk in score order, plus the second
// chunk for high-scoring files. Pass 2 adds the middle chunk of files
// in directories pass 1 never touched, when the file is long enough to
// have one. The same (path, index) pair is never selected twice.
func Select(chunks []types.ChunkRecord, maxSamples int) []types.Sample {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	if len(chunks) == 0 {
		return nil
	}

	groups := groupByFile(chunks)

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].score > groups[j].score
	})

	samples := make([]types.Sample, 0, maxSamples)
	seenDirs := make(map[string]bool)
	taken := make(map[string]map[int]bool)

	take := func(g *fileGroup, idx int) bool {
		if len(samples) >= maxSamples {
			return false
		}
		if taken[g.path] == nil {
			taken[g.path] = make(map[int]bool)
		}
		if taken[g.path][idx] {
			return true
		}
		taken[g.path][idx] = true
		samples = append(samples, types.Sample{
			Content:   g.chunks[idx].Content,
			Meta:      g.chunks[idx].Meta,
			FileScore: g.score,
		})
		seenDirs[path.Dir(g.path)] = true
		return true
	}

	// Pass 1: first chunk of every file, second chunk for important
	// files while budget remains.
	for i := range groups {
		g := &groups[i]
		if !take(g, 0) {
			break
		}
		if g.score >= importanceWeight && len(g.chunks) > 1 {
			if !take(g, 1) {
				break
			}
		}
	}

	// Pass 2: middle chunks from unrepresented directories.
	for i := range groups {
		if len(samples) >= maxSamples {
			break
		}
		g := &groups[i]
		if seenDirs[path.Dir(g.path)] || len(g.chunks) <= 2 {
			continue
		}
		take(g, len(g.chunks)/2)
	}

	return samples
}

// groupByFile collects chunks per file in discovery order, sorts each
// group by chunk index, and scores the file.
func groupByFile(chunks []types.ChunkRecord) []fileGroup {
	index := make(map[string]int)
	var groups []fileGroup

	for _, chunk := range chunks {
		p := chunk.Meta.FilePath
		i, ok := index[p]
		if !ok {
			i = len(groups)
			index[p] = i
			groups = append(groups, fileGroup{path: p, order: i})
		}
		groups[i].chunks = append(groups[i].chunks, chunk)
	}

	for i := range groups {
		g := &groups[i]
		sort.SliceStable(g.chunks, func(a, b int) bool {
			return g.chunks[a].Meta.ChunkIndex < g.chunks[b].Meta.ChunkIndex
		})
		g.score = scorePath(g.path)
	}

	return groups
}

// scorePath computes a file's importance score from its path alone.
func scorePath(filePath string) int {
	lower := strings.ToLower(filePath)
	score := 0

	for _, keyword := range importanceKeywords {
		if strings.Contains(lower, keyword) {
			score += importanceWeight
		}
	}

	if strings.Count(lower, "/") <= 1 {
		score += rootLevelWeight
	}

	for _, segment := range strings.Split(lower, "/") {
		if coreDirs[segment] {
			score += coreDirWeight
			break
		}
	}

	return score
}

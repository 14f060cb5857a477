package indexer

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/repohealth/internal/chunker"
	"github.com/dshills/repohealth/internal/embedder"
	"github.com/dshills/repohealth/internal/logger"
	"github.com/dshills/repohealth/internal/vectorstore"
	"github.com/dshills/repohealth/pkg/types"
)

// DefaultProgressInterval is how many files pass between progress
// callbacks.
const DefaultProgressInterval = 10

// ProgressFunc receives indexing progress: files processed so far out
// of the total.
type ProgressFunc func(processed, total int)

// Indexer chunks, embeds, and stores repository files.
type Indexer struct {
	splitter         *chunker.Splitter
	embedder         embedder.Embedder
	progressInterval int
	workers          int
}

// New creates an indexer. A non-positive progressInterval falls back to
// the default.
func New(splitter *chunker.Splitter, emb embedder.Embedder, progressInterval int) *Indexer {
	if progressInterval <= 0 {
		progressInterval = DefaultProgressInterval
	}
	return &Indexer{
		splitter:         splitter,
		embedder:         emb,
		progressInterval: progressInterval,
		workers:          runtime.NumCPU(),
	}
}

// fileChunks holds one file's chunking output, keyed by file position
// so the final write preserves enumeration order.
type fileChunks struct {
	texts []string
	metas []types.ChunkMeta
}

// IndexFiles chunks every file, embeds the chunk texts, and writes them
// to the collection in one batch. Empty files are skipped. Returns the
// number of chunks written.
func (ix *Indexer) IndexFiles(ctx context.Context, collection *vectorstore.Collection, files []types.FileRecord, onProgress ProgressFunc) (int, error) {
	log := logger.WithComponent("indexer")

	results := make([]fileChunks, len(files))
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)

	for i := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			file := files[i]
			if strings.TrimSpace(file.Content) != "" {
				results[i] = ix.chunkFile(file)
			}

			done := int(processed.Add(1))
			if onProgress != nil && (done%ix.progressInterval == 0 || done == len(files)) {
				onProgress(done, len(files))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("chunking files: %w", err)
	}

	// Flatten in file order and assign sequential chunk ids.
	var ids, texts []string
	var metas []types.ChunkMeta
	for _, fc := range results {
		for j := range fc.texts {
			ids = append(ids, fmt.Sprintf("chunk_%d", len(ids)))
			texts = append(texts, fc.texts[j])
			metas = append(metas, fc.metas[j])
		}
	}

	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := ix.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}

	if err := collection.Add(ctx, ids, vectors, texts, metas); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}

	log.WithField("chunks", len(ids)).WithField("files", len(files)).
		Info("indexing complete")
	return len(ids), nil
}

// chunkFile splits one file and builds per-chunk metadata. File-level
// metadata is extracted once; chunk-local declaration names come from
// re-scanning each chunk's own text.
func (ix *Indexer) chunkFile(file types.FileRecord) fileChunks {
	texts := ix.splitter.Split(file.Content, file.Extension)
	if len(texts) == 0 {
		return fileChunks{}
	}

	fileMeta := chunker.ExtractMetadata(file.Content, file.Extension)

	metas := make([]types.ChunkMeta, len(texts))
	for i, text := range texts {
		functions, classes, imports := chunker.ExtractChunkMetadata(text)
		metas[i] = types.ChunkMeta{
			FilePath:        file.Path,
			ChunkIndex:      i,
			TotalChunks:     len(texts),
			Language:        file.Extension,
			FunctionCount:   len(fileMeta.Functions),
			ClassCount:      len(fileMeta.Classes),
			ImportCount:     len(fileMeta.Imports),
			ComplexityScore: fileMeta.ComplexityScore,
			TotalLines:      fileMeta.TotalLines,
			CodeLines:       fileMeta.CodeLines,
			ChunkFunctions:  functions,
			ChunkClasses:    classes,
			ChunkImports:    imports,
		}
	}
	return fileChunks{texts: texts, metas: metas}
}

var collectionNameInvalid = regexp.MustCompile(`[^a-z0-9_-]+`)

// CollectionName derives the per-job collection name from the repo URL
// and job id: "<owner>_<repo>_<id>", sanitized to lowercase
// alphanumerics, underscores, and hyphens, capped at 63 characters.
func CollectionName(repoURL string, jobID uint) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(repoURL, "/"), ".git")
	trimmed = strings.TrimRight(trimmed, "/")

	// Take the last two path segments as owner/repo. The git@ form uses
	// ":" before the path; normalize it to "/" first.
	trimmed = strings.ReplaceAll(trimmed, ":", "/")
	parts := strings.Split(trimmed, "/")

	owner, repo := "repo", "repo"
	if len(parts) >= 2 {
		owner = parts[len(parts)-2]
		repo = parts[len(parts)-1]
	} else if len(parts) == 1 && parts[0] != "" {
		repo = parts[0]
	}

	name := strings.ToLower(fmt.Sprintf("%s_%s_%d", owner, repo, jobID))
	name = collectionNameInvalid.ReplaceAllString(name, "_")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// Package vectorstore persists chunk embeddings in SQLite, organized
// into named collections (one per analysis job). Vectors are stored as
// little-endian float32 blobs; similarity queries compute cosine
// similarity in Go over the collection's candidates.
package vectorstore

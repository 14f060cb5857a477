// Package indexer turns repository files into embedded chunks inside a
// vector store collection. Chunking and metadata extraction run on a
// bounded worker pool; the collection write happens once, after the
// pool joins, preserving file enumeration order.
package indexer

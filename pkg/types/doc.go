// Package types contains the shared domain types for repository analysis.
//
// Types here cross package boundaries: file records produced by the
// fetcher, chunk metadata written to and read from the vector store,
// samples handed to the summarizer, and the structured health report
// persisted for a completed job.
package types

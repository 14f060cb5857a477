// Package embedder generates vector embeddings for repository chunk
// texts. Two providers are available: a deterministic local provider
// that needs no network, and an Ollama HTTP provider for semantic
// embeddings. Both normalize vectors to unit length and share an LRU
// cache keyed by content hash.
package embedder

package types

// ChunkMeta is the metadata stored alongside every chunk in the vector
// store. File-level fields describe the whole originating file; the
// Chunk* name lists describe only what appears inside this chunk's text.
type ChunkMeta struct {
	FilePath    string `json:"file_path"`
	ChunkIndex  int    `json:"chunk_index"` // 0-based, contiguous per file
	TotalChunks int    `json:"total_chunks"`
	Language    string `json:"language"` // file extension tag, e.g. ".py"

	FunctionCount   int `json:"function_count"`
	ClassCount      int `json:"class_count"`
	ImportCount     int `json:"import_count"`
	ComplexityScore int `json:"complexity_score"`
	TotalLines      int `json:"total_lines"`
	CodeLines       int `json:"code_lines"`

	ChunkFunctions []string `json:"chunk_functions,omitempty"`
	ChunkClasses   []string `json:"chunk_classes,omitempty"`
	ChunkImports   []string `json:"chunk_imports,omitempty"`
}

// ChunkRecord is a chunk as returned from a vector store collection.
type ChunkRecord struct {
	ID      string
	Content string
	Meta    ChunkMeta
}

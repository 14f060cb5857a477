package types

// Sample is a chunk selected to represent the repository to the
// summarizer under a bounded sample budget. FileScore is the importance
// score of the originating file at selection time.
type Sample struct {
	Content   string
	Meta      ChunkMeta
	FileScore int
}

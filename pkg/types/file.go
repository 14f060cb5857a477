package types

// FileRecord is one repository file held in memory for a single analysis
// run. Paths are relative to the clone root.
type FileRecord struct {
	Path      string
	Content   string
	Extension string // lowercased, with leading dot
	Size      int    // content length in bytes
}

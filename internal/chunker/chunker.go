package chunker

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 800

	// DefaultOverlap is the overlap between consecutive chunks,
	// roughly 15% of the default chunk size.
	DefaultOverlap = 120
)

// defaultSeparators is the generic boundary preference: blank line,
// newline, space, hard cut.
var defaultSeparators = []string{"\n\n", "\n", " "}

// languageSeparators adds declaration-start boundaries ahead of the
// generic preferences for languages we recognize by extension.
var languageSeparators = map[string][]string{
	".py":    {"\nclass ", "\ndef ", "\n\tdef ", "\n\n", "\n", " "},
	".go":    {"\nfunc ", "\ntype ", "\nvar ", "\nconst ", "\n\n", "\n", " "},
	".js":    {"\nfunction ", "\nclass ", "\nexport ", "\nconst ", "\n\n", "\n", " "},
	".jsx":   {"\nfunction ", "\nclass ", "\nexport ", "\nconst ", "\n\n", "\n", " "},
	".ts":    {"\nfunction ", "\nclass ", "\nexport ", "\nconst ", "\n\n", "\n", " "},
	".tsx":   {"\nfunction ", "\nclass ", "\nexport ", "\nconst ", "\n\n", "\n", " "},
	".java":  {"\nclass ", "\npublic ", "\nprotected ", "\nprivate ", "\n\n", "\n", " "},
	".kt":    {"\nclass ", "\nfun ", "\nobject ", "\n\n", "\n", " "},
	".c":     {"\nstatic ", "\nstruct ", "\nvoid ", "\n\n", "\n", " "},
	".h":     {"\nstatic ", "\nstruct ", "\nvoid ", "\n\n", "\n", " "},
	".cpp":   {"\nclass ", "\nstatic ", "\nvoid ", "\n\n", "\n", " "},
	".hpp":   {"\nclass ", "\nstatic ", "\nvoid ", "\n\n", "\n", " "},
	".rs":    {"\nfn ", "\nimpl ", "\nstruct ", "\nenum ", "\n\n", "\n", " "},
	".rb":    {"\nclass ", "\ndef ", "\nmodule ", "\n\n", "\n", " "},
	".md":    {"\n## ", "\n### ", "\n\n", "\n", " "},
}

// Splitter cuts file content into overlapping chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a Splitter with the given target size and overlap.
// Non-positive sizes fall back to the defaults; an overlap that is
// negative or at least half the chunk size is replaced by 15% of the
// chunk size so the cursor always makes forward progress.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize/2 {
		overlap = chunkSize * 15 / 100
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// ChunkSize returns the configured target chunk length.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap length.
func (s *Splitter) Overlap() int { return s.overlap }

// Split divides content into ordered chunks of at most ChunkSize
// characters with Overlap characters shared between neighbors. Cut
// points snap backward to the highest-preference separator found in the
// second half of the window; when none is found the cut is hard.
func (s *Splitter) Split(content, ext string) []string {
	if content == "" {
		return nil
	}
	if len(content) <= s.chunkSize {
		return []string{content}
	}

	seps := separatorsFor(ext)
	var chunks []string

	start := 0
	for {
		end := start + s.chunkSize
		if end >= len(content) {
			chunks = append(chunks, content[start:])
			break
		}

		end = s.snapBoundary(content, start, end, seps)
		chunks = append(chunks, content[start:end])
		start = end - s.overlap
	}

	return chunks
}

// snapBoundary moves end backward to just after the best separator in
// (minEnd, end], where minEnd is half a window past start. Separators
// are tried in preference order; the first that matches wins.
func (s *Splitter) snapBoundary(content string, start, end int, seps []string) int {
	minEnd := start + s.chunkSize/2
	window := content[minEnd:end]

	for _, sep := range seps {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			cut := minEnd + idx + len(sep)
			if cut > start {
				return cut
			}
		}
	}
	return end
}

func separatorsFor(ext string) []string {
	if seps, ok := languageSeparators[strings.ToLower(ext)]; ok {
		return seps
	}
	return defaultSeparators
}

package chunker

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"

	"github.com/dshills/repohealth/internal/logger"
)

// FileMetadata is the structural summary of one file: declaration names,
// a control-flow complexity proxy, and line counts.
type FileMetadata struct {
	Functions       []string
	Classes         []string
	Imports         []string
	ComplexityScore int
	TotalLines      int
	CodeLines       int
}

// Declaration patterns for the regex strategy. These cover the common
// syntaxes across Python, JavaScript/TypeScript, Java, C-family, Rust,
// and Ruby; exact parsing is reserved for languages with a real parser.
var (
	funcPattern = regexp.MustCompile(
		`(?m)^[ \t]*(?:(?:async|static|public|private|protected|export)[ \t]+)*(?:def|func|function|fn)[ \t]+([A-Za-z_][A-Za-z0-9_]*)`)
	classPattern = regexp.MustCompile(
		`(?m)^[ \t]*(?:(?:export|public|abstract|final)[ \t]+)*(?:class|interface|struct|trait|enum)[ \t]+([A-Za-z_][A-Za-z0-9_]*)`)
	importPattern = regexp.MustCompile(
		`(?m)^[ \t]*(?:import|from|require|use|#include|using)[ \t]+(\S+)`)
	complexityPattern = regexp.MustCompile(
		`(?m)(?:^|[^A-Za-z0-9_])(if|for|while|switch|case|try|catch|except|elif)(?:[^A-Za-z0-9_]|$)`)
)

// ExtractMetadata extracts structural metadata from a whole file. Go
// files get an exact syntax-tree walk; everything else gets pattern
// matching. Failures never propagate: a file that cannot be parsed
// reports empty structural metadata with line counts intact.
func ExtractMetadata(content, ext string) FileMetadata {
	meta := FileMetadata{}
	meta.TotalLines, meta.CodeLines = countLines(content)

	if strings.ToLower(ext) == ".go" {
		if ok := extractGo(content, &meta); ok {
			return meta
		}
		// Unparseable Go source degrades to the pattern strategy.
		logger.WithComponent("chunker").Debug("go parse failed, using pattern extraction")
	}

	extractPatterns(content, &meta)
	return meta
}

// ExtractChunkMetadata re-scans a single chunk's text and returns the
// declaration names visible inside it. Chunks are partial files, so the
// pattern strategy is used for every language.
func ExtractChunkMetadata(chunk string) (functions, classes, imports []string) {
	var meta FileMetadata
	extractPatterns(chunk, &meta)
	return meta.Functions, meta.Classes, meta.Imports
}

// extractGo walks the file's syntax tree for exact declaration names and
// control-flow counts. Returns false when the source cannot be parsed.
func extractGo(content string, meta *FileMetadata) bool {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", content, 0)
	if err != nil || file == nil {
		return false
	}

	for _, imp := range file.Imports {
		meta.Imports = append(meta.Imports, strings.Trim(imp.Path.Value, `"`))
	}

	ast.Inspect(file, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.FuncDecl:
			meta.Functions = append(meta.Functions, n.Name.Name)
		case *ast.TypeSpec:
			switch n.Type.(type) {
			case *ast.StructType, *ast.InterfaceType:
				meta.Classes = append(meta.Classes, n.Name.Name)
			}
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt,
			*ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
			meta.ComplexityScore++
		}
		return true
	})

	return true
}

// extractPatterns applies the regex strategy to any text.
func extractPatterns(content string, meta *FileMetadata) {
	for _, m := range funcPattern.FindAllStringSubmatch(content, -1) {
		meta.Functions = append(meta.Functions, m[1])
	}
	for _, m := range classPattern.FindAllStringSubmatch(content, -1) {
		meta.Classes = append(meta.Classes, m[1])
	}
	for _, m := range importPattern.FindAllStringSubmatch(content, -1) {
		meta.Imports = append(meta.Imports, strings.TrimRight(m[1], ";,"))
	}
	meta.ComplexityScore += len(complexityPattern.FindAllString(content, -1))
}

func countLines(content string) (total, code int) {
	if content == "" {
		return 0, 0
	}
	lines := strings.Split(content, "\n")
	total = len(lines)
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			code++
		}
	}
	return total, code
}

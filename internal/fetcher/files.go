package fetcher

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/repohealth/internal/logger"
	"github.com/dshills/repohealth/pkg/types"
)

// languageNames maps file extensions to display names for language
// detection. Extensions outside this map report as "Other (<ext>)".
var languageNames = map[string]string{
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".jsx":   "JavaScript (React)",
	".tsx":   "TypeScript (React)",
	".java":  "Java",
	".go":    "Go",
	".rs":    "Rust",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++ Header",
	".hpp":   "C++ Header",
	".cs":    "C#",
	".rb":    "Ruby",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
}

// ReadFiles walks the clone and returns every readable file whose
// extension is whitelisted, skipping configured directory names.
// Unreadable files are logged and skipped, never fatal.
func (f *Fetcher) ReadFiles(root string) ([]types.FileRecord, error) {
	var files []types.FileRecord
	log := logger.WithComponent("fetcher")

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && f.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !f.allowedExts[ext] {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			log.WithError(readErr).Warnf("could not read file %s", path)
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		files = append(files, types.FileRecord{
			Path:      filepath.ToSlash(rel),
			Content:   string(content),
			Extension: ext,
			Size:      len(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("found %d text files in repository", len(files))
	return files, nil
}

// DetectLanguages maps each file's extension to a language label and
// counts files per language.
func DetectLanguages(files []types.FileRecord) map[string]int {
	languages := make(map[string]int)
	for _, file := range files {
		name, ok := languageNames[file.Extension]
		if !ok {
			name = "Other (" + file.Extension + ")"
		}
		languages[name]++
	}
	return languages
}

// ParseDependencies inspects well-known manifest files at the clone root
// and returns dependency names grouped by ecosystem. Parse failures are
// logged and skipped.
func ParseDependencies(root string) map[string][]string {
	deps := make(map[string][]string)
	log := logger.WithComponent("fetcher")

	if pkgs := parseRequirementsTxt(filepath.Join(root, "requirements.txt")); pkgs != nil {
		deps["Python"] = pkgs
	}

	if pkgs, err := parsePackageJSON(filepath.Join(root, "package.json")); err != nil {
		log.WithError(err).Warn("could not parse package.json")
	} else if pkgs != nil {
		deps["JavaScript/Node"] = pkgs
	}

	if pkgs := parseGoMod(filepath.Join(root, "go.mod")); pkgs != nil {
		deps["Go"] = pkgs
	}

	if _, err := os.Stat(filepath.Join(root, "pom.xml")); err == nil {
		deps["Java (Maven)"] = []string{"See pom.xml"}
	}
	if _, err := os.Stat(filepath.Join(root, "Cargo.toml")); err == nil {
		deps["Rust"] = []string{"See Cargo.toml"}
	}

	return deps
}

func parseRequirementsTxt(path string) []string {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var pkgs []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Strip version constraints: pkg==1.0, pkg>=2, pkg~=3.1
		for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<"} {
			if idx := strings.Index(line, sep); idx >= 0 {
				line = line[:idx]
			}
		}
		if pkg := strings.TrimSpace(line); pkg != "" {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}

func parsePackageJSON(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}

	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(content, &manifest); err != nil {
		return nil, err
	}

	var pkgs []string
	for name := range manifest.Dependencies {
		pkgs = append(pkgs, name)
	}
	for name := range manifest.DevDependencies {
		pkgs = append(pkgs, name)
	}
	sort.Strings(pkgs)
	return pkgs, nil
}

// parseGoMod extracts module paths from both single-line and block-form
// require directives.
func parseGoMod(path string) []string {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var pkgs []string
	inBlock := false
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "require (":
			inBlock = true
		case inBlock && line == ")":
			inBlock = false
		case inBlock:
			fields := strings.Fields(line)
			if len(fields) >= 2 && !strings.HasPrefix(fields[0], "//") {
				pkgs = append(pkgs, fields[0])
			}
		case strings.HasPrefix(line, "require "):
			fields := strings.Fields(strings.TrimPrefix(line, "require "))
			if len(fields) >= 1 {
				pkgs = append(pkgs, fields[0])
			}
		}
	}
	return pkgs
}

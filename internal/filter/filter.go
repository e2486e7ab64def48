package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dshills/gitnewer/internal/fileset"
	"github.com/dshills/gitnewer/internal/store"
)

// Mode selects how candidates are compared with changed paths.
type Mode int

const (
	// Exact keeps candidates whose absolute path is a changed path.
	Exact Mode = iota
	// Prefix keeps candidates whose absolute path prefixes a changed path.
	Prefix
)

func (m Mode) String() string {
	if m == Prefix {
		return "prefix"
	}
	return "exact"
}

// Host provides the file-system operations the filter delegates.
type Host interface {
	Expand(patterns []string) ([]string, error)
	Normalize(target map[string]any) ([]fileset.Group, error)
}

// Filter matches candidate files against a changed-file set.
type Filter struct {
	Mode Mode
	Host Host
}

// Match expands candidateGlobs and returns the candidates, in expansion order
// and in their original form, that count as changed.
func (f Filter) Match(candidateGlobs, changed []string) ([]string, error) {
	candidates, err := f.Host.Expand(candidateGlobs)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(changed))
	for _, c := range changed {
		set[c] = true
	}
	matched := []string{}
	for _, c := range candidates {
		abs, err := filepath.Abs(c)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", c, err)
		}
		if f.matches(resolveDirs(abs), changed, set) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// resolveDirs evaluates symlinks in the directories of path so it compares
// equal to the resolved repository root git reports. The last element is
// kept, since git lists a symlinked file under its own name. Missing
// directories are joined back unresolved.
func resolveDirs(path string) string {
	dir, rest := filepath.Dir(path), filepath.Base(path)
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}

func (f Filter) matches(abs string, changed []string, set map[string]bool) bool {
	if f.Mode != Prefix {
		return set[abs]
	}
	for _, c := range changed {
		if strings.HasPrefix(c, abs) {
			return true
		}
	}
	return false
}

// Shape identifies which file declaration a target uses.
type Shape int

const (
	// ShapeSrcList is a target with a "src" key.
	ShapeSrcList Shape = iota + 1
	// ShapeFilesString is "files" given as one comma-joinable string.
	ShapeFilesString
	// ShapeFilesList is "files" given as a list of strings.
	ShapeFilesList
	// ShapeFilesObjectSrc is "files" given as an object with "src".
	ShapeFilesObjectSrc
	// ShapeFallback covers every other declaration, normalised by the host.
	ShapeFallback
)

var shapeNames = map[Shape]string{
	ShapeSrcList:        "src-list",
	ShapeFilesString:    "files-string",
	ShapeFilesList:      "files-list",
	ShapeFilesObjectSrc: "files-object-src",
	ShapeFallback:       "fallback",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// DetectShape returns the first matching shape in priority order.
func DetectShape(target map[string]any) Shape {
	if _, ok := target["src"]; ok {
		return ShapeSrcList
	}
	switch files := target["files"].(type) {
	case string:
		return ShapeFilesString
	case []any:
		if len(files) > 0 {
			if _, ok := files[0].(string); ok {
				return ShapeFilesList
			}
		}
	case map[string]any:
		if _, ok := files["src"]; ok {
			return ShapeFilesObjectSrc
		}
	}
	return ShapeFallback
}

// Result is the outcome of a rewrite.
type Result struct {
	Target  map[string]any
	Matched []string
	Shape   Shape
}

// Rewrite returns a copy of target with its active file declaration narrowed
// to the changed files. The input is not modified.
func (f Filter) Rewrite(target map[string]any, changed []string) (Result, error) {
	out, _ := store.Clone(target).(map[string]any)
	if out == nil {
		out = make(map[string]any)
	}
	shape := DetectShape(out)
	res := Result{Target: out, Shape: shape}

	var err error
	switch shape {
	case ShapeSrcList:
		src, ok := store.Strings(out["src"])
		if !ok {
			return Result{}, fmt.Errorf("src must be a string or list of strings")
		}
		if res.Matched, err = f.Match(src, changed); err != nil {
			return Result{}, err
		}
		out["src"] = store.List(res.Matched)
	case ShapeFilesString:
		if res.Matched, err = f.Match([]string{out["files"].(string)}, changed); err != nil {
			return Result{}, err
		}
		out["files"] = strings.Join(res.Matched, ",")
	case ShapeFilesList:
		files, ok := store.Strings(out["files"])
		if !ok {
			return Result{}, fmt.Errorf("files list mixes strings and objects")
		}
		if res.Matched, err = f.Match(files, changed); err != nil {
			return Result{}, err
		}
		out["files"] = store.List(res.Matched)
	case ShapeFilesObjectSrc:
		obj := out["files"].(map[string]any)
		src, ok := store.Strings(obj["src"])
		if !ok {
			return Result{}, fmt.Errorf("files.src must be a string or list of strings")
		}
		if res.Matched, err = f.Match(src, changed); err != nil {
			return Result{}, err
		}
		obj["src"] = store.List(res.Matched)
	default:
		groups, err := f.Host.Normalize(out)
		if err != nil {
			return Result{}, err
		}
		var primary []string
		for _, g := range groups {
			if len(g.Src) > 0 {
				primary = append(primary, g.Src[0])
			}
		}
		if res.Matched, err = f.Match(primary, changed); err != nil {
			return Result{}, err
		}
		out["files"] = map[string]any{"src": store.List(res.Matched)}
	}
	return res, nil
}

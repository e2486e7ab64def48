package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dshills/gitnewer/internal/store"
)

// Group is one source/destination pairing from a target declaration.
type Group struct {
	Src  []string
	Dest string
}

// Disk expands patterns against the working directory.
type Disk struct{}

// Expand implements expansion for the filter and runner packages.
func (Disk) Expand(patterns []string) ([]string, error) {
	return Expand(patterns)
}

// Normalize implements file-group normalisation with on-disk expansion.
func (Disk) Normalize(target map[string]any) ([]Group, error) {
	return Normalize(target, Expand)
}

// Expand returns the existing paths matched by patterns, in pattern order,
// without duplicates.
func Expand(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "!") {
			out = exclude(out, p[1:])
			seen = make(map[string]bool, len(out))
			for _, f := range out {
				seen[f] = true
			}
			continue
		}
		matches, err := glob(p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func glob(pattern string) ([]string, error) {
	if !hasMeta(pattern) {
		if _, err := os.Lstat(pattern); err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("stat %s: %w", pattern, err)
		}
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func exclude(files []string, pattern string) []string {
	pattern = filepath.Clean(pattern)
	var kept []string
	for _, f := range files {
		matched, err := doublestar.PathMatch(pattern, filepath.Clean(f))
		if err == nil && matched {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// SplitComma splits a comma-joined file list, dropping blank entries.
func SplitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Normalize flattens every supported target declaration into groups and
// expands each group's sources with expand:
//
//	{src: [...], dest: "..."}
//	{files: "a.js,b.js"}
//	{files: ["a.js", "b.js"]}
//	{files: {src: [...], dest: "..."}}
//	{files: {"dest.js": ["a.js"], ...}}
//	{files: [{src: [...], dest: "..."}, ...]}
func Normalize(target map[string]any, expand func([]string) ([]string, error)) ([]Group, error) {
	raw, err := declaredGroups(target)
	if err != nil {
		return nil, err
	}
	groups := make([]Group, 0, len(raw))
	for _, g := range raw {
		src, err := expand(g.Src)
		if err != nil {
			return nil, err
		}
		groups = append(groups, Group{Src: src, Dest: g.Dest})
	}
	return groups, nil
}

func declaredGroups(target map[string]any) ([]Group, error) {
	if v, ok := target["src"]; ok {
		src, ok := store.Strings(v)
		if !ok {
			return nil, fmt.Errorf("src must be a string or list of strings")
		}
		return []Group{{Src: src, Dest: stringField(target, "dest")}}, nil
	}

	switch files := target["files"].(type) {
	case nil:
		return nil, nil
	case string:
		return []Group{{Src: SplitComma(files)}}, nil
	case []any:
		if len(files) == 0 {
			return nil, nil
		}
		if _, ok := files[0].(string); ok {
			src, ok := store.Strings(files)
			if !ok {
				return nil, fmt.Errorf("files list mixes strings and objects")
			}
			return []Group{{Src: src}}, nil
		}
		var groups []Group
		for i, e := range files {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("files[%d] must be an object", i)
			}
			src, ok := store.Strings(m["src"])
			if !ok {
				return nil, fmt.Errorf("files[%d].src must be a string or list of strings", i)
			}
			groups = append(groups, Group{Src: src, Dest: stringField(m, "dest")})
		}
		return groups, nil
	case map[string]any:
		if v, ok := files["src"]; ok {
			src, ok := store.Strings(v)
			if !ok {
				return nil, fmt.Errorf("files.src must be a string or list of strings")
			}
			return []Group{{Src: src, Dest: stringField(files, "dest")}}, nil
		}
		dests := make([]string, 0, len(files))
		for d := range files {
			dests = append(dests, d)
		}
		sort.Strings(dests)
		groups := make([]Group, 0, len(dests))
		for _, d := range dests {
			src, ok := store.Strings(files[d])
			if !ok {
				return nil, fmt.Errorf("files[%q] must be a string or list of strings", d)
			}
			groups = append(groups, Group{Src: src, Dest: d})
		}
		return groups, nil
	default:
		return nil, fmt.Errorf("unsupported files declaration %T", files)
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

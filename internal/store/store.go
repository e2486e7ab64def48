package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// ErrNotFound is returned when the task file does not exist.
var ErrNotFound = errors.New("task file not found")

// File is the on-disk layout of a task file.
type File struct {
	Tasks   map[string]any      `json:"tasks" toml:"tasks"`
	Aliases map[string][]string `json:"aliases,omitempty" toml:"aliases,omitempty"`
}

// Store is a mutable configuration tree addressed by key path.
type Store struct {
	mu      sync.RWMutex
	path    string
	tasks   map[string]any
	aliases map[string][]string
}

// New returns a store over the given task tree and aliases. Both may be nil.
func New(tasks map[string]any, aliases map[string][]string) *Store {
	if tasks == nil {
		tasks = make(map[string]any)
	}
	if aliases == nil {
		aliases = make(map[string][]string)
	}
	return &Store{tasks: tasks, aliases: aliases}
}

// Load reads a task file. Files ending in .toml are decoded as TOML,
// everything else as JSON.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing task file %s: %w", path, err)
	}
	s := New(f.Tasks, f.Aliases)
	s.path = path
	return s, nil
}

// Path returns the file the store was loaded from, if any.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value at path. An empty path returns the whole task tree.
func (s *Store) Get(path ...string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cur any = s.tasks
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores value at path, creating intermediate objects as needed.
func (s *Store) Set(path []string, value any) error {
	if len(path) == 0 {
		return errors.New("store: empty key path")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.tasks
	for i, key := range path[:len(path)-1] {
		next, ok := cur[key]
		if !ok || next == nil {
			m := make(map[string]any)
			cur[key] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("store: %s is not an object", strings.Join(path[:i+1], "."))
		}
		cur = m
	}
	cur[path[len(path)-1]] = value
	return nil
}

// Tasks returns the configured task names in sorted order.
func (s *Store) Tasks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.tasks)
}

// Targets returns the sorted keys of a task's configuration. ok is false when
// the task has no configuration object.
func (s *Store) Targets(task string) ([]string, bool) {
	v, ok := s.Get(task)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return sortedKeys(m), true
}

// Alias returns the task list registered under name.
func (s *Store) Alias(name string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.aliases[name]
	return list, ok
}

// Aliases returns a copy of all alias definitions.
func (s *Store) Aliases() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

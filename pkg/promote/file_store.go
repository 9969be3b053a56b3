package promote

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/forjbuild/forj/pkg/errors"
	"github.com/forjbuild/forj/pkg/types"
)

// FileStore persists candidates to a YAML file under the build area, so
// the promote workflow can pick them up in a later invocation.
type FileStore struct {
	path string
	fs   types.FS

	mu sync.Mutex
}

// NewFileStore creates a store backed by the YAML file at path. The file
// is created on first registration.
func NewFileStore(path string, fs types.FS) *FileStore {
	return &FileStore{path: path, fs: fs}
}

// RegisterCorrection implements Store.
func (s *FileStore) RegisterCorrection(source, correction string) error {
	return s.register(Candidate{Source: source, Correction: correction})
}

// RegisterIntermediate implements Store.
func (s *FileStore) RegisterIntermediate(source, correction string) error {
	return s.register(Candidate{Source: source, Correction: correction, Intermediate: true})
}

// Candidates loads everything registered so far. A missing file means no
// candidates.
func (s *FileStore) Candidates() ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Clear removes the backing file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to clear promotion store %s", s.path)
	}
	return nil
}

// Apply copies each final correction back onto its source file and drops
// it from the store. Intermediate candidates are dropped without copying;
// they exist for reporting only.
func (s *FileStore) Apply() ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.load()
	if err != nil {
		return nil, err
	}

	var applied []Candidate
	var remaining []Candidate
	for _, c := range candidates {
		if c.Intermediate {
			continue
		}
		data, err := s.fs.ReadFile(c.Correction)
		if err != nil {
			// The correction file may have been cleaned since; keep the
			// candidate so the user can investigate.
			remaining = append(remaining, c)
			continue
		}
		if err := s.fs.WriteFile(c.Source, data, 0644); err != nil {
			return applied, errors.Wrapf(err, errors.ErrFileWrite,
				"failed to promote %s onto %s", c.Correction, c.Source)
		}
		applied = append(applied, c)
	}

	if err := s.save(remaining); err != nil {
		return applied, err
	}
	return applied, nil
}

func (s *FileStore) register(c Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range candidates {
		if existing.Source == c.Source && existing.Correction == c.Correction {
			candidates[i] = c
			return s.save(candidates)
		}
	}
	return s.save(append(candidates, c))
}

func (s *FileStore) load() ([]Candidate, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read promotion store %s", s.path)
	}
	var candidates []Candidate
	if err := yaml.Unmarshal(data, &candidates); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "corrupt promotion store %s", s.path)
	}
	return candidates, nil
}

func (s *FileStore) save(candidates []Candidate) error {
	if len(candidates) == 0 {
		if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to reset promotion store %s", s.path)
		}
		return nil
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create promotion store directory")
	}
	data, err := yaml.Marshal(candidates)
	if err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to encode promotion store")
	}
	if err := s.fs.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write promotion store %s", s.path)
	}
	return nil
}

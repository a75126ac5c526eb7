package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Resolver turns opaque file references into retrievable URLs. The
// workflow layer never inspects file bytes; it only stores references and
// resolves them for display.
type Resolver interface {
	Resolve(ref string) (string, bool)
}

// UploadHandle is the first half of the two-step upload protocol: the
// client requests a handle, pushes bytes to its URL, then passes the ID
// around as an opaque reference.
type UploadHandle struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// FileStore keeps uploaded files on local disk, one file per handle ID.
type FileStore struct {
	dir     string
	baseURL string
}

func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create files directory: %w", err)
	}
	return &FileStore{dir: dir, baseURL: baseURL}, nil
}

func (s *FileStore) NewUpload() UploadHandle {
	id := uuid.NewString()
	return UploadHandle{
		ID:  id,
		URL: s.baseURL + "/uploads/" + id,
	}
}

// Save stores the bytes for a previously issued handle. The ID must parse
// as a UUID so references can never reach outside the store directory.
func (s *FileStore) Save(id string, r io.Reader) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid upload id %q: %w", id, err)
	}

	f, err := os.Create(filepath.Join(s.dir, id))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Path returns the on-disk path for a stored reference, for serving.
func (s *FileStore) Path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid file id %q: %w", id, err)
	}
	path := filepath.Join(s.dir, id)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	return path, nil
}

// Resolve maps a stored reference to its retrievable URL. Unknown or
// malformed references resolve to nothing rather than failing the read
// that asked for them.
func (s *FileStore) Resolve(ref string) (string, bool) {
	if _, err := uuid.Parse(ref); err != nil {
		return "", false
	}
	if _, err := os.Stat(filepath.Join(s.dir, ref)); err != nil {
		return "", false
	}
	return s.baseURL + "/files/" + ref, true
}

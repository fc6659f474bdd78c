package object

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Compression selects how object bytes are encoded on disk.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// zstdMagic is the frame header every zstd stream starts with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// The hash always covers the uncompressed content. Reads accept both raw and
// zstd-encoded objects, so the compression setting can change over the
// lifetime of a repository.
type Store struct {
	root        string
	compression Compression
	logger      *slog.Logger

	encOnce sync.Once
	enc     *zstd.Encoder
	encErr  error

	decOnce sync.Once
	dec     *zstd.Decoder
	decErr  error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCompression sets the encoding used for new objects.
func WithCompression(c Compression) StoreOption {
	return func(s *Store) {
		if c != "" {
			s.compression = c
		}
	}
}

// WithLogger attaches a logger for debug-level write tracing.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{
		root:        root,
		compression: CompressionNone,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory the store was opened on.
func (s *Store) Root() string {
	return s.root
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) (string, error) {
	if !IsHash(string(h)) {
		return "", fmt.Errorf("%w: invalid object id %q", ErrNotFound, h)
	}
	id := strings.ToLower(string(h))
	return filepath.Join(s.root, "objects", id[:2], id[2:]), nil
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	p, err := s.objectPath(h)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Put stores content and returns its hash. Existing objects are never
// rewritten. Writes are atomic: data is written to a temp file and then
// renamed into place.
func (s *Store) Put(data []byte) (Hash, error) {
	h := HashBytes(data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	raw, err := s.encode(data)
	if err != nil {
		return "", fmt.Errorf("object write %s: encode: %w", h, err)
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	// Atomic write via temp + rename.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	dest, _ := s.objectPath(h)
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	s.logger.Debug("object written", "hash", h, "size", len(data), "compression", s.compression)
	return h, nil
}

// Get retrieves the content stored under h. The content is verified against
// its hash before it is returned.
func (s *Store) Get(h Hash) ([]byte, error) {
	p, err := s.objectPath(h)
	if err != nil {
		return nil, fmt.Errorf("object read: %w", err)
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}

	want := Hash(strings.ToLower(string(h)))
	if HashBytes(raw) == want {
		return raw, nil
	}
	if bytes.HasPrefix(raw, zstdMagic) {
		data, err := s.decode(raw)
		if err != nil {
			return nil, fmt.Errorf("object read %s: %w: %v", h, ErrCorrupt, err)
		}
		if HashBytes(data) == want {
			return data, nil
		}
	}
	return nil, fmt.Errorf("object read %s: %w: content does not match hash", h, ErrCorrupt)
}

func (s *Store) encode(data []byte) ([]byte, error) {
	if s.compression != CompressionZstd {
		return data, nil
	}
	s.encOnce.Do(func() {
		s.enc, s.encErr = zstd.NewWriter(nil)
	})
	if s.encErr != nil {
		return nil, s.encErr
	}
	return s.enc.EncodeAll(data, nil), nil
}

func (s *Store) decode(raw []byte) ([]byte, error) {
	s.decOnce.Do(func() {
		s.dec, s.decErr = zstd.NewReader(nil)
	})
	if s.decErr != nil {
		return nil, s.decErr
	}
	return s.dec.DecodeAll(raw, nil)
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// PutBlob stores raw file content.
func (s *Store) PutBlob(data []byte) (Hash, error) {
	return s.Put(data)
}

// PutTree serializes and stores a Tree.
func (s *Store) PutTree(t Tree) (Hash, error) {
	return s.Put(MarshalTree(t))
}

// GetTree reads and deserializes a Tree.
func (s *Store) GetTree(h Hash) (Tree, error) {
	data, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	t, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return t, nil
}

// PutCommit serializes and stores a Commit.
func (s *Store) PutCommit(c *Commit) (Hash, error) {
	return s.Put(MarshalCommit(c))
}

// GetCommit reads and deserializes a Commit.
func (s *Store) GetCommit(h Hash) (*Commit, error) {
	data, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}

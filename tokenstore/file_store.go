package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrsteele09/engine-dashboard/users"
	"github.com/rs/zerolog"
)

const (
	tokenFileName = "token"
	userFileName  = "user.json"
)

// FileStore keeps the token and user as two files in a private directory
type FileStore struct {
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("token store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create token store directory: %w", err)
	}
	o := newOptions(opts)
	return &FileStore{dir: dir, logger: o.logger.With().Str("backend", "file").Logger()}, nil
}

func (s *FileStore) Get(_ context.Context) Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.read(tokenFileName)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read token")
		return Credentials{}
	}
	userData, err := s.read(userFileName)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read cached user")
		userData = nil
	}
	return credentials(strings.TrimSpace(string(token)), decodeUser(s.logger, userData))
}

func (s *FileStore) Set(_ context.Context, token string, user users.User) error {
	data, err := user.Encode()
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(tokenFileName, []byte(token)); err != nil {
		return err
	}
	return s.write(userFileName, data)
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{tokenFileName, userFileName} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

func (s *FileStore) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// write replaces the file atomically so readers never see a partial entry
func (s *FileStore) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

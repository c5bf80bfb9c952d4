// Package storage keeps generated narration audio on local disk and
// optionally mirrors it to object storage.
package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	filePrefix = "analysis_"
	fileExt    = ".mp3"
)

var (
	ErrNotFound    = errors.New("audio file not found")
	ErrInvalidName = errors.New("invalid audio file name")
)

// Mirror copies a finished audio file somewhere else.
type Mirror interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

type AudioStore struct {
	logger *log.Logger
	dir    string
	mirror Mirror
}

func NewAudioStore(logger *log.Logger, dir string) (*AudioStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &AudioStore{
		logger: logger,
		dir:    dir,
	}, nil
}

func (s *AudioStore) SetMirror(m Mirror) {
	s.mirror = m
}

func (s *AudioStore) Dir() string { return s.dir }

// NewName returns a fresh file name for a narration.
func NewName() string {
	return filePrefix + uuid.NewString() + fileExt
}

// Save creates a new uniquely named file and fills it with write. It returns
// the file path relative to the store, e.g. audio_outputs/analysis_<uuid>.mp3.
// Nothing is left on disk when write fails.
func (s *AudioStore) Save(ctx context.Context, write func(w io.Writer) error) (string, error) {
	// The directory may have been removed since startup.
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	name := NewName()
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}

	bw := bufio.NewWriter(f)
	err = write(bw)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			s.logger.Printf("failed to remove partial audio %s: %v\n", path, rerr)
		}
		return "", err
	}

	if s.mirror != nil {
		url, err := s.mirror.Upload(ctx, path, name)
		if err != nil {
			s.logger.Printf("failed to mirror audio %s: %v\n", name, err)
		} else {
			s.logger.Printf("mirrored audio %s to %s\n", name, url)
		}
	}
	return path, nil
}

// Open returns the stored file called name. Only plain file names inside
// the store are accepted.
func (s *AudioStore) Open(name string) (*os.File, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !st.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name && filepath.IsLocal(name)
}

// Sweep deletes narrations last modified more than ttl before now and
// returns how many were removed.
func (s *AudioStore) Sweep(ttl time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	var removed int
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= ttl {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Printf("failed to evict %s: %v\n", name, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// RunJanitor sweeps every interval until ctx is done. A zero ttl disables it.
func (s *AudioStore) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.Sweep(ttl, now)
			if err != nil {
				s.logger.Printf("audio sweep failed: %v\n", err)
				continue
			}
			if n > 0 {
				s.logger.Printf("evicted %d audio files older than %s\n", n, ttl)
			}
		}
	}
}

// Package source abstracts the compiler's file IO behind
// github.com/viant/afs, the same storage-agnostic abstraction the
// retrieved corpus's own analyzer and inspector/repository packages use
// (afs.Service, created via afs.New()) to read a project from local
// disk, memory, or a cloud object store without the rest of the
// codebase caring which. kappac (package cmd/kappac) is the only
// caller that needs this -- package compiler itself works on an
// *ast.Module (Compile) or plain []byte (CompileSource) so it stays
// storage-agnostic.
package source

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
)

// Store reads and writes program source through an afs.Service.
type Store struct {
	fs afs.Service
}

// New returns a Store backed by afs's default service, which dispatches
// on a URL's scheme (bare paths and file:// resolve locally; mem://,
// s3://, gs://, and friends are also available without any code change
// here).
func New() *Store {
	return &Store{fs: afs.New()}
}

// Read downloads the full contents addressed by URL.
func (s *Store) Read(ctx context.Context, url string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("source: reading %s: %w", url, err)
	}
	return data, nil
}

// Write uploads data to the location addressed by URL, creating it if
// it doesn't already exist.
func (s *Store) Write(ctx context.Context, url string, data []byte) error {
	if err := s.fs.Upload(ctx, url, os.FileMode(0644), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("source: writing %s: %w", url, err)
	}
	return nil
}

// Package metadatatest provides an in-memory metadata.Tagger for tests.
package metadatatest

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"
)

// ErrInjected is returned for paths registered with FailOn.
var ErrInjected = errors.New("injected failure")

// Fake keeps captions in memory. Writes also bump the file's timestamps, the
// way a real metadata rewrite would.
type Fake struct {
	mu       sync.Mutex
	captions map[string]string
	fail     map[string]bool
	Writes   []string
	Closed   bool
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		captions: make(map[string]string),
		fail:     make(map[string]bool),
	}
}

// Set seeds the caption stored for path.
func (f *Fake) Set(path, caption string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captions[path] = caption
}

// Caption returns the caption stored for path.
func (f *Fake) Caption(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.captions[path]
	return c, ok
}

// FailOn makes every read and write of path fail.
func (f *Fake) FailOn(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[path] = true
}

func (f *Fake) ReadCaption(_ context.Context, path string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[path] {
		return "", false, ErrInjected
	}
	c, ok := f.captions[path]
	return c, ok, nil
}

func (f *Fake) WriteCaption(_ context.Context, path, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[path] {
		return ErrInjected
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return err
	}
	f.captions[path] = caption
	f.Writes = append(f.Writes, path)
	return nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

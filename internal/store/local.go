package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluree/db-sub010/internal/errs"
)

// Local is a filesystem-backed Store, addressing content under a root
// directory. I/O errors that look transient (timeouts, too many open
// files, resource temporarily unavailable) are classified as
// errs.ErrTransientIO so that a caller wrapped in WithRetry can recover
// from brief contention; a missing file is reported as errs.ErrNotFound.
type Local struct {
	root string
}

// NewLocal creates a filesystem-backed store rooted at dir. The directory
// is created if it does not already exist.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap("store.local.new", errs.StorageIO, err)
	}
	return &Local{root: dir}, nil
}

func (l *Local) pathFor(address Address) string {
	s := string(address)
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
		if i2 := strings.Index(s, ":"); i2 >= 0 {
			s = s[i2+1:]
		}
	}
	return filepath.Join(l.root, filepath.FromSlash(s))
}

func (l *Local) Write(_ context.Context, pathPrefix string, content []byte) (WriteResult, error) {
	addr := BuildAddress("fluree:file", pathPrefix, content)
	hash, _ := addr.Hash()
	path := l.pathFor(addr)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WriteResult{}, errs.Wrap("store.local.write", errs.StorageIO, classifyOSErr(err))
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return WriteResult{}, errs.Wrap("store.local.write", errs.StorageIO, classifyOSErr(err))
	}
	return WriteResult{Address: addr, Hash: hash, Size: len(content)}, nil
}

func (l *Local) WriteAt(_ context.Context, address Address, content []byte) error {
	path := l.pathFor(address)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap("store.local.write_at", errs.StorageIO, classifyOSErr(err))
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errs.Wrap("store.local.write_at", errs.StorageIO, classifyOSErr(err))
	}
	return nil
}

func (l *Local) Read(_ context.Context, address Address) ([]byte, error) {
	b, err := os.ReadFile(l.pathFor(address))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(fmt.Sprintf("store.local.read %s", address), errs.StorageIO, errs.ErrNotFound)
		}
		return nil, errs.Wrap("store.local.read", errs.StorageIO, classifyOSErr(err))
	}
	return b, nil
}

func (l *Local) Delete(_ context.Context, address Address) error {
	err := os.Remove(l.pathFor(address))
	if err != nil && !os.IsNotExist(err) {
		return errs.Wrap("store.local.delete", errs.StorageIO, classifyOSErr(err))
	}
	return nil
}

func (l *Local) List(ctx context.Context, prefix string) ([]Address, error) {
	return l.ListRecursive(ctx, prefix)
}

func (l *Local) ListRecursive(_ context.Context, prefix string) ([]Address, error) {
	var out []Address
	root := filepath.Join(l.root, filepath.FromSlash(prefix))
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(l.root, path)
		out = append(out, Address("fluree:file:"+filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, errs.Wrap("store.local.list_recursive", errs.StorageIO, classifyOSErr(err))
	}
	return out, nil
}

// classifyOSErr marks errors plausibly caused by concurrent access or
// filesystem pressure as transient, mirroring the teacher's
// isRetryableError string-matching approach for SQL driver errors.
func classifyOSErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if os.IsTimeout(err) || strings.Contains(msg, "too many open files") || strings.Contains(msg, "resource temporarily unavailable") {
		return fmt.Errorf("%w: %s", errs.ErrTransientIO, msg)
	}
	return fmt.Errorf("%w: %s", errs.ErrPermanentIO, msg)
}

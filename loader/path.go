package loader

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("executable file not found in PATH")

// Resolver maps command names to executable paths the way execvp does,
// remembering previous answers.
type Resolver struct {
	// Path is the search list; empty means $PATH at lookup time.
	Path string

	mu    sync.Mutex
	cache *lru.ARCCache
}

func NewResolver(size int) *Resolver {
	cache, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}

	return &Resolver{cache: cache}
}

func isExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !fi.Mode().IsRegular() || fi.Mode().Perm()&0111 == 0 {
		return os.ErrPermission
	}

	return nil
}

// LookPath resolves file. Names containing a slash are checked and used as
// they are; other names are searched for in each PATH directory in order.
func (r *Resolver) LookPath(file string) (string, error) {
	if strings.Contains(file, "/") {
		if err := isExecutable(file); err != nil {
			return "", errors.Wrapf(err, "exec %s", file)
		}
		return file, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache.Get(file); ok {
		path := v.(string)
		if isExecutable(path) == nil {
			return path, nil
		}

		r.cache.Remove(file)
	}

	search := r.Path
	if search == "" {
		search = os.Getenv("PATH")
	}

	for _, dir := range filepath.SplitList(search) {
		if dir == "" {
			dir = "."
		}

		path := filepath.Join(dir, file)
		if isExecutable(path) == nil {
			r.cache.Add(file, path)
			return path, nil
		}
	}

	return "", errors.Wrapf(ErrNotFound, "exec %s", file)
}

// Forget drops every remembered lookup.
func (r *Resolver) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Purge()
}

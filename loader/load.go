// Package loader finds executables and checks that the kernel can run them
// before a child is forked for them.
package loader

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Binject/debug/elf"
	"golang.org/x/crypto/blake2b"

	"github.com/evanphx/rawsys/log"
	hclog "github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

var ErrNotExecutable = errors.New("not an executable image")

// Image is what the loader learned about an executable.
type Image struct {
	Path string
	Key  string

	// Script is set for "#!" files; Interp is then the interpreter named
	// on the first line, otherwise the ELF PT_INTERP path (if any).
	Script bool
	Interp string

	Class   elf.Class
	Machine elf.Machine
	Type    elf.Type
}

type LoaderCache struct {
	mu sync.RWMutex

	cache *lru.ARCCache
}

func NewLoaderCache(size int) *LoaderCache {
	cache, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}

	return &LoaderCache{cache: cache}
}

func (l *LoaderCache) Lookup(key string) (*Image, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	val, ok := l.cache.Get(key)
	if !ok {
		return nil, false
	}

	return val.(*Image), true
}

func (l *LoaderCache) Set(key string, img *Image) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache.Add(key, img)
}

func NewLoader(cache *LoaderCache) *Loader {
	return &Loader{
		L:     log.L,
		cache: cache,
	}
}

type Loader struct {
	L     hclog.Logger
	cache *LoaderCache
}

// Source is a seekable, randomly readable executable.
type Source interface {
	io.ReadSeeker
	io.ReaderAt
}

func (l *Loader) LoadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	img, err := l.Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	img.Path = path
	return img, nil
}

// Load inspects r. The returned Image is a copy owned by the caller.
func (l *Loader) Load(r Source) (*Image, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}

	_, err = io.Copy(h, r)
	if err != nil {
		return nil, err
	}

	key := base64.URLEncoding.EncodeToString(h.Sum(nil))

	_, err = r.Seek(0, io.SeekStart)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		l.L.Trace("looking for cached image", "key", key)

		if img, ok := l.cache.Lookup(key); ok {
			cp := *img
			return &cp, nil
		}
	}

	img, err := inspect(r)
	if err != nil {
		return nil, err
	}

	img.Key = key

	if l.cache != nil {
		l.L.Trace("cached image", "key", key)
		l.cache.Set(key, img)
	}

	cp := *img
	return &cp, nil
}

const maxShebang = 256

func inspect(r Source) (*Image, error) {
	var magic [2]byte

	_, err := r.ReadAt(magic[:], 0)
	if err != nil {
		return nil, errors.Wrap(ErrNotExecutable, "short file")
	}

	if magic[0] == '#' && magic[1] == '!' {
		return inspectScript(r)
	}

	f, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrap(ErrNotExecutable, err.Error())
	}

	img := &Image{
		Class:   f.Class,
		Machine: f.Machine,
		Type:    f.Type,
	}

	if f.Class != elf.ELFCLASS64 || f.Machine != elf.EM_X86_64 {
		return nil, errors.Wrapf(ErrNotExecutable, "%s %s image", f.Class, f.Machine)
	}

	if f.Type != elf.ET_EXEC && f.Type != elf.ET_DYN {
		return nil, errors.Wrapf(ErrNotExecutable, "%s image", f.Type)
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_INTERP {
			continue
		}

		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "reading PT_INTERP")
		}

		img.Interp = string(bytes.TrimRight(data, "\x00"))
	}

	return img, nil
}

func inspectScript(r Source) (*Image, error) {
	br := bufio.NewReaderSize(io.NewSectionReader(r, 2, maxShebang), maxShebang)

	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrNotExecutable, "empty interpreter line")
	}

	return &Image{Script: true, Interp: fields[0]}, nil
}

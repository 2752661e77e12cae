package buildsys

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

func init() {
	gob.Register(TaskList{})
	gob.Register(Task{})
	gob.Register(Shortcuts{})
}

// WriteCache stores a compressed snapshot of the registry together with the digest of the build file
// it was parsed from.
func WriteCache(file, digest string, registry *Registry) error {
	handle, err := os.Create(file)
	if err != nil {
		return err
	}
	defer handle.Close()

	writer := brotli.NewWriter(handle)
	encoder := gob.NewEncoder(writer)
	err = encoder.Encode(digest)
	if err != nil {
		return err
	}

	err = encoder.Encode(registry)
	if err != nil {
		return err
	}

	return writer.Close()
}

// ReadCache loads a snapshot written by WriteCache
func ReadCache(file string) (string, *Registry, error) {
	handle, err := os.Open(file)
	if err != nil {
		return "", nil, err
	}
	defer handle.Close()

	decoder := gob.NewDecoder(brotli.NewReader(handle))

	var digest string
	err = decoder.Decode(&digest)
	if err != nil {
		return "", nil, err
	}

	result := NewRegistry()
	err = decoder.Decode(result)
	if err != nil {
		return digest, nil, err
	}

	return digest, result, nil
}

func cachePath(cacheDir, buildFile string) string {
	abs, err := filepath.Abs(buildFile)
	if err != nil {
		abs = buildFile
	}

	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(cacheDir, hex.EncodeToString(sum[:8])+".cache")
}

// LoadRegistry parses buildFile. If cacheDir isn't empty, a cached result is used as long as the file's
// contents haven't changed. Problems with the cache are logged and otherwise ignored.
func LoadRegistry(ctx context.Context, buildFile, cacheDir string) (*Registry, error) {
	content, err := ioutil.ReadFile(buildFile)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read build file %s", buildFile)
	}

	if cacheDir == "" {
		return Parse(ctx, bytes.NewReader(content), buildFile)
	}

	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])
	cacheFile := cachePath(cacheDir, buildFile)

	cachedDigest, cached, err := ReadCache(cacheFile)
	if err == nil && cachedDigest == digest {
		log(ctx).Debug().Str("path", cacheFile).Msg("using cached build file")
		return cached, nil
	}
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		log(ctx).Warn().Err(err).Str("path", cacheFile).Msg("ignoring unreadable cache")
	}

	registry, err := Parse(ctx, bytes.NewReader(content), buildFile)
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(cacheDir, 0770)
	if err == nil {
		err = WriteCache(cacheFile, digest, registry)
	}
	if err != nil {
		log(ctx).Warn().Err(err).Str("path", cacheFile).Msg("failed to update cache")
	}

	return registry, nil
}

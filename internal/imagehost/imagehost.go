// Package imagehost defines the third-party image hosting boundary. An
// uploader takes the raw file and returns the host's asset metadata, which
// the console then persists to its own backend.
package imagehost

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"strings"

	"cps-console/internal/domain/image"
)

type File struct {
	Name     string
	Mimetype string
	Data     []byte
}

type Uploader interface {
	Upload(ctx context.Context, f File) (image.Hosted, error)
}

// Extension returns the lower-case extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Digests returns the hex MD5 and SHA1 of data. Hosts dedupe on the MD5.
func Digests(data []byte) (md5Hex, sha1Hex string) {
	m := md5.Sum(data)
	s := sha1.Sum(data)
	return hex.EncodeToString(m[:]), hex.EncodeToString(s[:])
}

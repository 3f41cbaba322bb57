// Package ioutil provides the file-read helper collaborator spec.md
// §6 references: a way to pull a whole file's contents into memory
// using the same readv-batched approach as buffer.Buffer.ReadFD,
// without requiring a file descriptor to be non-blocking or routed
// through the reactor (regular files are always "ready" from epoll's
// point of view, so there is nothing to await here).
package ioutil

import (
	"os"

	"github.com/momentics/corortime/buffer"
)

// ReadAll reads the entirety of the file at path into a Buffer,
// growing it with repeated ReadFD calls until a zero-length read
// signals end of file.
func ReadAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := buffer.New()
	fd := int(f.Fd())
	for {
		n, err := buf.ReadFD(fd)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return []byte(buf.RetrieveAllAsString()), nil
}

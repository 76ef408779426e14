package blobstore

import (
	"io"
	"os"

	"golang.org/x/crypto/chacha20"
)

// encryptedReader decrypts plaintext on the fly as the underlying file is
// read, re-synchronizing the keystream to whatever byte offset Seek lands
// on before the next Read.
type encryptedReader struct {
	file     *os.File
	key      [32]byte
	stream   *chacha20.Cipher
	position int64
}

func (r *encryptedReader) Read(p []byte) (int, error) {
	n, err := r.file.Read(p)
	if n > 0 {
		r.stream.XORKeyStream(p[:n], p[:n])
		r.position += int64(n)
	}
	return n, err
}

// Seek repositions the underlying file and re-derives the keystream so that
// the cipher offset matches the new file offset before the next Read.
func (r *encryptedReader) Seek(offset int64, whence int) (int64, error) {
	newPos, err := r.file.Seek(offset, whence)
	if err != nil {
		return 0, err
	}

	stream, err := newStreamAt(r.key, newPos)
	if err != nil {
		return 0, err
	}
	r.stream = stream
	r.position = newPos
	return newPos, nil
}

func (r *encryptedReader) Close() error {
	return r.file.Close()
}

var _ io.ReadSeekCloser = (*encryptedReader)(nil)

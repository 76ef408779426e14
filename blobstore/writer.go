package blobstore

import (
	"io"
	"os"

	"golang.org/x/crypto/chacha20"
)

// encryptedWriter XORs plaintext against the XChaCha20 keystream before it
// reaches disk. Writes are sequential (blobs are append-only from
// allocation), but the cipher is still re-synced defensively whenever the
// position it expects diverges from the file's actual offset, so that a
// short write never desyncs subsequent encryption.
type encryptedWriter struct {
	file     *os.File
	key      [32]byte
	stream   *chacha20.Cipher
	position int64
}

func (w *encryptedWriter) Write(p []byte) (int, error) {
	if err := w.resync(); err != nil {
		return 0, err
	}

	buf := make([]byte, len(p))
	w.stream.XORKeyStream(buf, p)

	n, err := w.file.Write(buf)
	w.position += int64(n)

	// XORKeyStream already advanced the cipher's counter by len(p), not n.
	// A short write (n < len(p)) leaves the stream ahead of the true file
	// offset, and position alone can't reveal that divergence since it was
	// only ever bumped by n — re-derive the cipher now rather than wait for
	// a resync() check that would never trip.
	if n < len(p) {
		if rerr := w.rederive(); rerr != nil && err == nil {
			err = rerr
		}
	}

	if err != nil {
		return n, err
	}
	return n, nil
}

// resync ensures the keystream's position matches the file's actual write
// offset before the next Write, re-deriving the cipher if they have
// diverged (e.g. a concurrent seek on the same handle).
func (w *encryptedWriter) resync() error {
	actual, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if actual == w.position {
		return nil
	}
	return w.rederive()
}

// rederive re-creates the keystream at the file's true current offset.
func (w *encryptedWriter) rederive() error {
	actual, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	stream, err := newStreamAt(w.key, actual)
	if err != nil {
		return err
	}
	w.stream = stream
	w.position = actual
	return nil
}

func (w *encryptedWriter) Close() error {
	return w.file.Close()
}

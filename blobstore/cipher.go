package blobstore

import (
	"golang.org/x/crypto/chacha20"
)

// blockSize is the XChaCha20 keystream block size; offsets not aligned to it
// require discarding a partial block's worth of keystream to resynchronize.
const blockSize = chacha20.BlockSize

// zeroNonce is safe because every blob is keyed with a key unique to its
// UUID (Secret.DeriveFromUUID): the (key, nonce) pair never repeats even
// though the nonce itself never varies.
var zeroNonce = make([]byte, chacha20.NonceSizeX)

// newStreamAt returns a keystream cipher whose internal counter is
// positioned at byte offset, so that the next XORKeyStream call produces
// the same keystream bytes it would have if the cipher had been streaming
// from offset 0 all along. This is the "cipher offset == file offset"
// invariant from the design notes.
func newStreamAt(key [32]byte, offset int64) (*chacha20.Cipher, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key[:], zeroNonce)
	if err != nil {
		return nil, err
	}

	block := uint32(offset / blockSize)
	discard := int(offset % blockSize)

	c.SetCounter(block)
	if discard > 0 {
		junk := make([]byte, discard)
		c.XORKeyStream(junk, junk)
	}
	return c, nil
}

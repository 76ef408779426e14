package bucket

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"mediavault/blobstore"
	"mediavault/index"
	"mediavault/secret"
	"mediavault/vaulterr"
)

const (
	indexFileName      = "index.db"
	mediaDirName       = "media"
	encryptionFileName = "encryption.json"
)

// Bucket composes a concrete DataSource implementation with an
// is-encrypted bit (§4.5).
type Bucket struct {
	ds          DataSource
	isEncrypted bool
}

// DataSource returns the uniform data-source surface (§6.2).
func (b *Bucket) DataSource() DataSource {
	return b.ds
}

// IsEncrypted reports whether this bucket's index/blobs are password
// protected.
func (b *Bucket) IsEncrypted() bool {
	return b.isEncrypted
}

// Close releases the bucket's underlying data source resources. Called when
// an instance unloads a loaded bucket (§4.7).
func (b *Bucket) Close() error {
	return b.ds.Close()
}

// Open opens a bucket at location. A http(s):// prefix dispatches to the
// stubbed remote data source; anything else is opened as an encrypted
// local directory, requiring password if the bucket is protected.
func Open(ctx context.Context, location, password string, log zerolog.Logger) (*Bucket, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &Bucket{ds: newRemoteDataSource(location), isEncrypted: false}, nil
	}
	return openLocal(ctx, location, password, log)
}

func openLocal(ctx context.Context, dir, password string, log zerolog.Logger) (*Bucket, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, vaulterr.InvalidLocation.New("%s is not a directory", dir)
	}

	secrets, err := loadEncryptionMetadata(dir)
	if err != nil {
		return nil, err
	}

	var master secret.Secret
	isEncrypted := len(secrets.EncryptedSecrets) > 0
	if isEncrypted {
		if password == "" {
			return nil, vaulterr.PasswordRequired.New("bucket at %s requires a password", dir)
		}
		master, err = secrets.Unlock(password)
		if err != nil {
			return nil, vaulterr.InvalidPassword.Wrap(err)
		}
	} else {
		master, err = secret.Random()
		if err != nil {
			return nil, err
		}
	}

	masterHex := ""
	if isEncrypted {
		masterHex = hex.EncodeToString(master[:])
	}

	blobs, err := blobstore.Open(filepath.Join(dir, mediaDirName), master)
	if err != nil {
		return nil, err
	}

	idx, err := index.Open(ctx, filepath.Join(dir, indexFileName), masterHex)
	if err != nil {
		return nil, err
	}

	ds := newLocalDataSource(blobs, idx, &secrets, master, log)
	return &Bucket{ds: ds, isEncrypted: isEncrypted}, nil
}

// CreateEncrypted initializes a new bucket directory at path, wrapping a
// fresh master secret with password (§6).
func CreateEncrypted(ctx context.Context, path, password string, log zerolog.Logger) (*Bucket, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, vaulterr.IO.Wrap(err)
	}

	master, err := secret.Random()
	if err != nil {
		return nil, err
	}

	var meta secret.EncryptionMetadata
	if err := meta.AddPassword(password, master); err != nil {
		return nil, vaulterr.IO.Wrap(err)
	}
	if err := saveEncryptionMetadata(path, meta); err != nil {
		return nil, err
	}

	blobs, err := blobstore.Open(filepath.Join(path, mediaDirName), master)
	if err != nil {
		return nil, err
	}

	masterHex := hex.EncodeToString(master[:])
	idx, err := index.Open(ctx, filepath.Join(path, indexFileName), masterHex)
	if err != nil {
		return nil, err
	}

	ds := newLocalDataSource(blobs, idx, &meta, master, log)
	return &Bucket{ds: ds, isEncrypted: true}, nil
}

func loadEncryptionMetadata(dir string) (secret.EncryptionMetadata, error) {
	path := filepath.Join(dir, encryptionFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return secret.EncryptionMetadata{}, nil
		}
		return secret.EncryptionMetadata{}, vaulterr.IO.Wrap(err)
	}

	var meta secret.EncryptionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return secret.EncryptionMetadata{}, vaulterr.IO.Wrap(err)
	}
	return meta, nil
}

func saveEncryptionMetadata(dir string, meta secret.EncryptionMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return vaulterr.IO.Wrap(err)
	}
	if err := os.WriteFile(filepath.Join(dir, encryptionFileName), data, 0o600); err != nil {
		return vaulterr.IO.Wrap(err)
	}
	return nil
}

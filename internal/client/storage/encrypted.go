package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"umclient/internal/cryptox"
	"umclient/internal/models"
)

// Encrypted persists the credential record sealed with AES-GCM under a key
// derived from a passphrase. It keeps bearer tokens unreadable at rest.
type Encrypted struct {
	path       string
	passphrase []byte
}

// envelope is the on-disk format. The salt is generated per write, so the
// derived key changes on every save.
type envelope struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func NewEncrypted(path string, passphrase []byte) *Encrypted {
	return &Encrypted{path: path, passphrase: passphrase}
}

func (e *Encrypted) Load(_ context.Context) (models.Credentials, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Credentials{}, nil
		}
		return models.Credentials{}, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.Credentials{}, err
	}

	key := cryptox.DeriveKey(e.passphrase, env.Salt)
	var creds models.Credentials
	if err := cryptox.OpenRecord(env.Ciphertext, env.Nonce, key, &creds); err != nil {
		return models.Credentials{}, err
	}
	return creds, nil
}

func (e *Encrypted) Save(_ context.Context, creds models.Credentials) error {
	salt := cryptox.NewSalt()
	key := cryptox.DeriveKey(e.passphrase, salt)

	ciphertext, nonce, err := cryptox.SealRecord(creds, key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope{Salt: salt, Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return err
	}

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, e.path)
}

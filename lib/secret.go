package lib

import (
	"strings"

	"github.com/pkg/errors"
)

// SecretStore keeps the Okta login password between runs so the
// operator is not prompted on every invocation. AWS credentials are
// never stored here.
type SecretStore interface {
	Load() error
	Get(username string) (string, error)
	Save(username, secret string) error
	Clear() error
}

var secret SecretStore = defaultstore{}

// InitializeSecret prepares the store named by the remember_password
// setting.
func InitializeSecret(typ string) error {
	switch strings.ToLower(typ) {
	case "keyring":
		store, err := NewKeyringStore()
		if err != nil {
			return err
		}
		secret = store
	case "file":
		store, err := NewFileStore()
		if err != nil {
			return err
		}
		secret = store
	case "", "none":
		secret = defaultstore{}
	default:
		return errors.New("invalid type for secret store: " + typ)
	}
	return nil
}

func StoredPassword(username string) (string, error) {
	if err := secret.Load(); err != nil {
		return "", err
	}
	return secret.Get(username)
}

func StorePassword(username, password string) error {
	return secret.Save(username, password)
}

func ClearSecret() error {
	return secret.Clear()
}

type defaultstore struct{}

func (defaultstore) Load() error { return nil }
func (defaultstore) Get(string) (string, error) {
	return "", errors.New("no secret store configured")
}
func (defaultstore) Save(string, string) error {
	return errors.New("no secret store configured")
}
func (defaultstore) Clear() error {
	return errors.New("no secret store configured")
}

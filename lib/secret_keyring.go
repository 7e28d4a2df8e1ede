package lib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/werf/lockgate"
	"github.com/werf/lockgate/pkg/file_locker"
	"github.com/zalando/go-keyring"
)

// KeyringStore keeps login secrets in the OS keyring, one JSON document
// per OS user, guarded by a file lock against concurrent runs.
type KeyringStore struct {
	locker       lockgate.Locker   `json:"-"`
	lockResource string            `json:"-"`
	user         string            `json:"-"`
	service      string            `json:"-"`
	Passwords    map[string]string `json:"passwords"`
}

func NewKeyringStore() (*KeyringStore, error) {
	dir := filepath.Join(os.TempDir(), "gimme-aws-creds-lock")
	l, err := file_locker.NewFileLocker(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "can't setup lock dir %s", dir)
	}
	return &KeyringStore{
		locker:       l,
		lockResource: "gimme-aws-creds",
		user:         os.Getenv("USER"),
		service:      "gimme-aws-creds",
		Passwords:    make(map[string]string),
	}, nil
}

func (s *KeyringStore) Load() error {
	acquired, lock, err := s.locker.Acquire(s.lockResource, lockgate.AcquireOptions{Shared: false, Timeout: 3 * time.Minute})
	if err != nil {
		return errors.Wrap(err, "can't load secret due to locked now")
	}
	if !acquired {
		return errors.New("can't load secret due to locked now")
	}
	defer func() {
		if err := s.locker.Release(lock); err != nil {
			Writeln("Can't unlock: %s", err)
		}
	}()

	jsonStr, err := keyring.Get(s.service, s.user)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "can't load secret due to unexpected error")
	}
	if err := json.Unmarshal([]byte(jsonStr), s); err != nil {
		return errors.Wrap(err, "can't load secret due to broken data")
	}
	return nil
}

func (s *KeyringStore) Get(username string) (string, error) {
	password, ok := s.Passwords[username]
	if !ok {
		return "", errors.Errorf("not found the secret for %s", username)
	}
	Writeln("Got the password from the OS secret store for %s", username)
	return password, nil
}

func (s *KeyringStore) Save(username, password string) error {
	acquired, lock, err := s.locker.Acquire(s.lockResource, lockgate.AcquireOptions{Shared: false, Timeout: 3 * time.Minute})
	if err != nil {
		return errors.Wrap(err, "can't save secret due to locked now")
	}
	if !acquired {
		return errors.New("can't save secret due to locked now")
	}
	defer func() {
		if err := s.locker.Release(lock); err != nil {
			Writeln("Can't unlock: %s", err)
		}
	}()

	// Merge with the latest stored state before writing back.
	jsonStr, err := keyring.Get(s.service, s.user)
	if err != nil && err != keyring.ErrNotFound {
		return errors.Wrap(err, "can't load secret due to unexpected error")
	}
	if jsonStr != "" {
		if err := json.Unmarshal([]byte(jsonStr), s); err != nil {
			return errors.Wrap(err, "can't load secret due to broken data")
		}
	}
	if s.Passwords == nil {
		s.Passwords = make(map[string]string)
	}
	s.Passwords[username] = password
	newJSONStr, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "can't marshal data")
	}
	if err := keyring.Set(s.service, s.user, string(newJSONStr)); err != nil {
		return errors.Wrap(err, "can't save secret")
	}
	return nil
}

func (s *KeyringStore) Clear() error {
	return keyring.Delete(s.service, s.user)
}

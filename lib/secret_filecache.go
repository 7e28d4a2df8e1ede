package lib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore keeps login secrets in a plain JSON file under the
// configuration directory, for hosts without a usable OS keyring.
type FileStore struct {
	sync.RWMutex
	filepath string
	secrets  map[string]string
}

func NewFileStore() (*FileStore, error) {
	dir, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "cannot create %s", dir)
	}
	path := filepath.Join(dir, "secret")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot create secret file %s", path)
		}
		f.WriteString("{}\n")
		f.Close()
	}
	return &FileStore{filepath: path, secrets: make(map[string]string)}, nil
}

func (sf *FileStore) Load() error {
	sf.Lock()
	defer sf.Unlock()
	f, err := os.Open(sf.filepath)
	if err != nil {
		return errors.Wrapf(err, "cannot open secret file %s", sf.filepath)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&sf.secrets); err != nil {
		Writeln("warning: cannot decode secret file %s: %s", sf.filepath, err)
	}
	return nil
}

func (sf *FileStore) Get(username string) (string, error) {
	sf.RLock()
	defer sf.RUnlock()
	password, ok := sf.secrets[username]
	if !ok {
		return "", errors.Errorf("no secret found for %s", username)
	}
	Writeln("Got the password from the file store for %s", username)
	return password, nil
}

func (sf *FileStore) Save(username, password string) error {
	sf.Lock()
	defer sf.Unlock()
	sf.secrets[username] = password
	f, err := os.OpenFile(sf.filepath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "cannot save the secret for %s", username)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(sf.secrets); err != nil {
		return errors.Wrapf(err, "cannot save the secret for %s", username)
	}
	return nil
}

func (sf *FileStore) Clear() error {
	sf.Lock()
	defer sf.Unlock()
	for k := range sf.secrets {
		delete(sf.secrets, k)
	}
	return os.Remove(sf.filepath)
}

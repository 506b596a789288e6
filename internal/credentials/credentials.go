// Package credentials resolves the credential id a build is configured with
// to the username and password used against the Hub.
package credentials

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound   = errors.New("no credentials could be found")
	ErrIncomplete = errors.New("credentials need both a username and a password")
)

type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// String hides the password.
func (c Credentials) String() string {
	return fmt.Sprintf("%s:********", c.Username)
}

type Resolver interface {
	Resolve(id string) (Credentials, error)
}

type entry struct {
	ID          string `yaml:"id"`
	Credentials `yaml:",inline"`
}

type storeFile struct {
	Credentials []entry `yaml:"credentials"`
}

// FileStore is a Resolver backed by a YAML file:
//
//	credentials:
//	  - id: hub
//	    username: sysadmin
//	    password: blackduck
type FileStore struct {
	entries map[string]Credentials
}

func LoadFileStore(fs afero.Fs, path string) (*FileStore, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", path, err)
	}

	store := &FileStore{entries: make(map[string]Credentials, len(f.Credentials))}
	for _, e := range f.Credentials {
		store.entries[e.ID] = e.Credentials
	}
	return store, nil
}

func (s *FileStore) Resolve(id string) (Credentials, error) {
	c, ok := s.entries[id]
	if !ok {
		return Credentials{}, fmt.Errorf("%w for id %q", ErrNotFound, id)
	}
	if c.Username == "" || c.Password == "" {
		return Credentials{}, fmt.Errorf("%w: id %q", ErrIncomplete, id)
	}
	return c, nil
}

// Static resolves every id to the same credentials.
type Static Credentials

func (s Static) Resolve(_ string) (Credentials, error) {
	c := Credentials(s)
	if c.Username == "" || c.Password == "" {
		return Credentials{}, ErrIncomplete
	}
	return c, nil
}

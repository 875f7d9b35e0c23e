package fyers

import (
	"encoding/json"
	"os"

	"optiflow/pkg/errors"
)

// Token holds the broker API credentials. The access token is minted by an
// interactive login flow outside this process and dropped into the token
// file; the engine only ever reads it.
type Token struct {
	ClientID    string `json:"client_id"`
	SecretKey   string `json:"secret_key"`
	AccessToken string `json:"access_token"`
}

// Valid reports whether the token can authenticate API calls
func (t Token) Valid() bool {
	return t.ClientID != "" && t.AccessToken != ""
}

// TokenStore reads broker credentials from a JSON file. The file is
// re-read on every Load so a token refreshed by the login flow is picked
// up on the next polling cycle without a restart.
type TokenStore struct {
	path string
}

// NewTokenStore creates a token store backed by the given file path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load reads the current credentials. A missing file yields a zero token,
// not an error: absence of credentials is a suspend condition for callers.
func (s *TokenStore) Load() (Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Token{}, nil
		}
		return Token{}, errors.Wrap(err, "read token file")
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return Token{}, errors.Wrap(err, "parse token file")
	}
	return t, nil
}

// HasValidToken reports whether usable credentials are currently on disk
func (s *TokenStore) HasValidToken() (bool, error) {
	t, err := s.Load()
	if err != nil {
		return false, err
	}
	return t.Valid(), nil
}

// Package file persists watched accounts in a single JSON document on disk,
// the default backend for single-host deployments. The document maps chat
// IDs to account records; the whole file is rewritten on every mutation and
// the in-memory copy stays authoritative for the running process if a write
// fails.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/satwatch/satwatch/internal/account"
)

type record struct {
	Address      string                   `json:"address"`
	Cursor       int64                    `json:"lastBlockTime"`
	Pending      map[string]pendingRecord `json:"pendingTxMessages"`
	FeeThreshold *int64                   `json:"gasThreshold,omitempty"`
}

type pendingRecord struct {
	MessageID int    `json:"messageId"`
	Text      string `json:"messageContent"`
}

// Store is a file-backed account.Storage.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]record
}

var _ account.Storage = (*Store)(nil)

// New opens the store, loading the document at path if it exists.
func New(path string) (*Store, error) {
	s := &Store{
		path:    path,
		records: make(map[string]record),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return s, nil
}

// flush writes the whole document. Callers must hold the write lock.
func (s *Store) flush() error {
	data, err := json.Marshal(s.records)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func toRecord(acct account.Account) record {
	rec := record{
		Address:      acct.Address,
		Cursor:       acct.Cursor,
		Pending:      make(map[string]pendingRecord, len(acct.Pending)),
		FeeThreshold: acct.FeeThreshold,
	}
	for txID, entry := range acct.Pending {
		rec.Pending[txID] = pendingRecord{MessageID: entry.MessageID, Text: entry.Text}
	}
	return rec
}

func toAccount(chatID int64, rec record) account.Account {
	acct := account.Account{
		ChatID:       chatID,
		Address:      rec.Address,
		Cursor:       rec.Cursor,
		Pending:      make(map[string]account.PendingEntry, len(rec.Pending)),
		FeeThreshold: rec.FeeThreshold,
	}
	for txID, entry := range rec.Pending {
		acct.Pending[txID] = account.PendingEntry{MessageID: entry.MessageID, Text: entry.Text}
	}
	return acct
}

// Get implements account.Storage.
func (s *Store) Get(ctx context.Context, chatID int64) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[strconv.FormatInt(chatID, 10)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return toAccount(chatID, rec), nil
}

// Put implements account.Storage.
func (s *Store) Put(ctx context.Context, acct account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[strconv.FormatInt(acct.ChatID, 10)] = toRecord(acct)
	return s.flush()
}

// Delete implements account.Storage.
func (s *Store) Delete(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, strconv.FormatInt(chatID, 10))
	return s.flush()
}

// List implements account.Storage.
func (s *Store) List(ctx context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]account.Account, 0, len(s.records))
	for field, rec := range s.records {
		chatID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt chat id %q in %s: %w", field, s.path, err)
		}
		accounts = append(accounts, toAccount(chatID, rec))
	}
	return accounts, nil
}

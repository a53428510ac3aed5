package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/satwatch/satwatch/internal/account"

	redis "github.com/redis/go-redis/v9"
)

// accountsKey is the hash holding every account, field = chat ID,
// value = JSON-encoded record.
const accountsKey = "satwatch:accounts"

// record is the persisted shape of an account. The chat ID lives in the
// hash field, not the value.
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

func encode(acct account.Account) ([]byte, error) {
	rec := record{
		Address:      acct.Address,
		Cursor:       acct.Cursor,
		Pending:      make(map[string]pendingRecord, len(acct.Pending)),
		FeeThreshold: acct.FeeThreshold,
	}
	for txID, entry := range acct.Pending {
		rec.Pending[txID] = pendingRecord{MessageID: entry.MessageID, Text: entry.Text}
	}
	return json.Marshal(rec)
}

func decode(chatID int64, data []byte) (account.Account, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return account.Account{}, err
	}

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
	return acct, nil
}

// Get implements account.Storage.
func (c *client) Get(ctx context.Context, chatID int64) (account.Account, error) {
	data, err := c.conn.HGet(ctx, accountsKey, strconv.FormatInt(chatID, 10)).Bytes()
	if errors.Is(err, redis.Nil) {
		return account.Account{}, account.ErrNotFound
	}
	if err != nil {
		return account.Account{}, err
	}

	return decode(chatID, data)
}

// Put implements account.Storage.
func (c *client) Put(ctx context.Context, acct account.Account) error {
	data, err := encode(acct)
	if err != nil {
		return err
	}

	return c.conn.HSet(ctx, accountsKey, strconv.FormatInt(acct.ChatID, 10), data).Err()
}

// Delete implements account.Storage.
func (c *client) Delete(ctx context.Context, chatID int64) error {
	return c.conn.HDel(ctx, accountsKey, strconv.FormatInt(chatID, 10)).Err()
}

// List implements account.Storage.
func (c *client) List(ctx context.Context) ([]account.Account, error) {
	entries, err := c.conn.HGetAll(ctx, accountsKey).Result()
	if err != nil {
		return nil, err
	}

	accounts := make([]account.Account, 0, len(entries))
	for field, data := range entries {
		chatID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, err
		}

		acct, err := decode(chatID, []byte(data))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

var _ account.Storage = (*client)(nil)

package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/budgetd/internal/db"
)

// negativeBalanceReply is the error reply raised by the increment script
// when the resulting total would be below zero.
const negativeBalanceReply = "NEGATIVE_BALANCE"

// addSpendScript applies a conditional float increment to the "spend"
// field of the key's hash. The whole script executes atomically on the
// server, so concurrent increments on the same key serialize here.
var addSpendScript = rueidis.NewLuaScript(`
local spent = tonumber(redis.call('HGET', KEYS[1], 'spend') or '0')
local delta = tonumber(ARGV[1])
if spent + delta < 0 then
  return redis.error_reply('NEGATIVE_BALANCE')
end
local total = redis.call('HINCRBYFLOAT', KEYS[1], 'spend', ARGV[1])
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return total
`)

// AddSpend atomically adds delta to the accumulator at key and returns
// the new total. Rejects results below zero with db.ErrNegativeBalance.
func (s *Store) AddSpend(ctx context.Context, key string, delta float64) (float64, error) {
	args := []string{
		strconv.FormatFloat(delta, 'f', -1, 64),
		strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	raw, err := addSpendScript.Exec(ctx, s.client, []string{key}, args).ToString()
	if err != nil {
		if isRedisErr(err, negativeBalanceReply) {
			return 0, db.ErrNegativeBalance
		}
		return 0, &db.Error{Op: db.OpAddSpend, Err: err}
	}

	total, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &db.Error{Op: db.OpAddSpend, Err: err}
	}
	return total, nil
}

// GetSpendEntry returns the accumulator value and last-update timestamp
// at key. Returns db.ErrKeyNotFound when the entry does not exist yet.
func (s *Store) GetSpendEntry(ctx context.Context, key string) (db.SpendEntry, error) {
	cmd := s.b().Hmget().Key(key).Field("spend", "updated_at").Build()
	fields, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return db.SpendEntry{}, &db.Error{Op: db.OpGetSpend, Err: err}
	}

	rawSpend, err := fields[0].ToString()
	if err != nil {
		// HMGET reports an absent field as nil, not as a command error.
		if rueidis.IsRedisNil(err) {
			return db.SpendEntry{}, db.ErrKeyNotFound
		}
		return db.SpendEntry{}, &db.Error{Op: db.OpGetSpend, Err: err}
	}

	entry := db.SpendEntry{}
	entry.Spend, err = strconv.ParseFloat(rawSpend, 64)
	if err != nil {
		return db.SpendEntry{}, &db.Error{Op: db.OpGetSpend, Err: err}
	}

	if rawUpdated, err := fields[1].ToString(); err == nil {
		entry.UpdatedAt, _ = strconv.ParseInt(rawUpdated, 10, 64)
	}
	return entry, nil
}

// GetSpend returns the accumulator value at key.
// Returns db.ErrKeyNotFound when the entry does not exist yet.
func (s *Store) GetSpend(ctx context.Context, key string) (float64, error) {
	cmd := s.b().Hget().Key(key).Field("spend").Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, db.ErrKeyNotFound
		}
		return 0, &db.Error{Op: db.OpGetSpend, Err: err}
	}

	total, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &db.Error{Op: db.OpGetSpend, Err: err}
	}
	return total, nil
}

package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps a pre-built rueidis client, usually a mock, in a
// Store. Test-only seam; production code goes through NewStore.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

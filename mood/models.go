// Package mood models the per-account, position-indexed mood log.
package mood

import (
	"time"

	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/types"
)

// Entry is one timestamped text record in an account's log.
//
// Entries are addressed by (account, index) at read time; the index is
// derived from the Seq ordering and shifts when earlier entries are removed.
type Entry struct {
	types.Entity

	ID         id.MoodID     `json:"id"`
	ContractID id.ContractID `json:"contract_id"`
	Account    types.Address `json:"account"`
	Text       string        `json:"mood"`
	// Timestamp is unix seconds at append time.
	Timestamp int64 `json:"timestamp"`
	Seq       int64 `json:"seq"`
}

// Time returns Timestamp as a UTC time.
func (e *Entry) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

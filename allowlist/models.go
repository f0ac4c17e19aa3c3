// Package allowlist models the ordered set of addresses allowed to append
// moods, including the zero-address wildcard.
package allowlist

import (
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/types"
)

// Member is one row of a contract's allowlist. Rows are ordered by Seq.
type Member struct {
	types.Entity

	ID         id.MemberID   `json:"id"`
	ContractID id.ContractID `json:"contract_id"`
	Address    types.Address `json:"address"`
	Seq        int64         `json:"seq"`
}

// Addresses projects members onto their addresses, keeping order.
func Addresses(members []*Member) []types.Address {
	out := make([]types.Address, len(members))
	for i, m := range members {
		out[i] = m.Address
	}
	return out
}

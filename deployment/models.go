// Package deployment describes a deployed mood contract: its identity and
// its single owner.
package deployment

import (
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/types"
)

// Deployment is the persisted head record of a contract.
type Deployment struct {
	types.Entity

	ID    id.ContractID `json:"id"`
	Owner types.Address `json:"owner"`
}

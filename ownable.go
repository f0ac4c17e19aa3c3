package dailymood

import (
	"context"

	"github.com/xraph/dailymood/types"
)

// Owner returns the current owner of the contract.
func (c *Contract) Owner(ctx context.Context) (types.Address, error) {
	d, err := c.ledger.store.GetDeployment(ctx, c.id)
	if err != nil {
		return types.ZeroAddress, err
	}
	return d.Owner, nil
}

// TransferOwnership hands the contract to newOwner. Only the current owner
// may call it, and the zero address is rejected so the contract always has
// exactly one owner.
func (c *Contract) TransferOwnership(ctx context.Context, caller, newOwner types.Address) error {
	c.ledger.writeMu.Lock()
	defer c.ledger.writeMu.Unlock()

	previous, err := c.requireOwner(ctx, caller, "transfer_ownership")
	if err != nil {
		return err
	}
	if types.IsZero(newOwner) {
		return ErrInvalidOwner
	}

	if err := c.ledger.store.SetOwner(ctx, c.id, newOwner, c.ledger.clock()); err != nil {
		return err
	}

	c.ledger.plugins.EmitOwnershipTransferred(ctx, c.id, previous, newOwner)

	c.ledger.logger.Info("ownership transferred",
		"contract_id", c.id.String(),
		"previous", previous.Hex(),
		"next", newOwner.Hex(),
	)

	return nil
}

// requireOwner fails with an UnauthorizedAccountError unless caller is the
// current owner. It returns the owner it checked against.
func (c *Contract) requireOwner(ctx context.Context, caller types.Address, operation string) (types.Address, error) {
	owner, err := c.Owner(ctx)
	if err != nil {
		return types.ZeroAddress, err
	}
	if caller != owner {
		c.denied(ctx, caller, operation)
		return owner, &UnauthorizedAccountError{Account: caller, Role: RoleOwner}
	}
	return owner, nil
}

func (c *Contract) denied(ctx context.Context, caller types.Address, operation string) {
	c.ledger.plugins.EmitAccessDenied(ctx, c.id, caller, operation)

	c.ledger.logger.Debug("access denied",
		"contract_id", c.id.String(),
		"caller", caller.Hex(),
		"operation", operation,
	)
}

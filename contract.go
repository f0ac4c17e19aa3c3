package dailymood

import (
	"context"
	"errors"

	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/types"
)

// Contract is a handle to one deployed mood contract. Every mutating method
// takes the calling account explicitly and checks authorization first, then
// index bounds, and only then touches state. A failed call changes nothing.
type Contract struct {
	ledger *Ledger
	id     id.ContractID
}

// ID returns the contract identifier.
func (c *Contract) ID() id.ContractID {
	return c.id
}

// ──────────────────────────────────────────────────
// Allowlist
// ──────────────────────────────────────────────────

// AddAllowed appends addr to the allowlist. Duplicates are kept.
func (c *Contract) AddAllowed(ctx context.Context, caller, addr types.Address) error {
	c.ledger.writeMu.Lock()
	defer c.ledger.writeMu.Unlock()

	if _, err := c.requireOwner(ctx, caller, "add_allowed"); err != nil {
		return err
	}

	floor, err := c.ledger.store.LastMemberSeq(ctx, c.id)
	if err != nil {
		return err
	}

	now := c.ledger.clock()
	m := &allowlist.Member{
		Entity:     types.NewEntity(now),
		ID:         id.NewMemberID(),
		ContractID: c.id,
		Address:    addr,
		Seq:        c.ledger.nextSeq(now, floor),
	}
	if err := c.ledger.store.AppendMember(ctx, m); err != nil {
		return err
	}

	c.ledger.plugins.EmitAllowedAdded(ctx, c.id, addr)
	return nil
}

// RemoveAllowed removes the first occurrence of addr and keeps the order of
// the rest. Removing an absent address is a successful no-op.
func (c *Contract) RemoveAllowed(ctx context.Context, caller, addr types.Address) error {
	c.ledger.writeMu.Lock()
	defer c.ledger.writeMu.Unlock()

	if _, err := c.requireOwner(ctx, caller, "remove_allowed"); err != nil {
		return err
	}

	found, err := c.ledger.store.RemoveFirstMember(ctx, c.id, addr)
	if err != nil {
		return err
	}

	c.ledger.plugins.EmitAllowedRemoved(ctx, c.id, addr, found)
	return nil
}

// IsAllowed reports whether addr is listed, or the zero address is.
func (c *Contract) IsAllowed(ctx context.Context, addr types.Address) (bool, error) {
	set, err := c.AllowedAddresses(ctx)
	if err != nil {
		return false, err
	}
	return allowlist.Allows(set, addr), nil
}

// AllowedAddresses returns the allowlist in order, duplicates included.
func (c *Contract) AllowedAddresses(ctx context.Context) ([]types.Address, error) {
	members, err := c.ledger.store.ListMembers(ctx, c.id)
	if err != nil {
		return nil, err
	}
	return allowlist.Addresses(members), nil
}

// AllowedAddressLength returns the raw allowlist length, counting duplicates
// and the zero address.
func (c *Contract) AllowedAddressLength(ctx context.Context) (int, error) {
	return c.ledger.store.CountMembers(ctx, c.id)
}

func (c *Contract) requireAllowed(ctx context.Context, caller types.Address, operation string) error {
	ok, err := c.IsAllowed(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		c.denied(ctx, caller, operation)
		return &UnauthorizedAccountError{Account: caller, Role: RoleAllowed}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Mood logs
// ──────────────────────────────────────────────────

// PushMood appends text to the caller's own log, stamped with the current
// time in unix seconds.
func (c *Contract) PushMood(ctx context.Context, caller types.Address, text string) (*mood.Entry, error) {
	e, _, err := c.PushMoodIndexed(ctx, caller, text)
	return e, err
}

// PushMoodIndexed is PushMood that also returns the index the entry landed
// at, read under the same lock as the append.
func (c *Contract) PushMoodIndexed(ctx context.Context, caller types.Address, text string) (*mood.Entry, int, error) {
	c.ledger.writeMu.Lock()
	defer c.ledger.writeMu.Unlock()

	if err := c.requireAllowed(ctx, caller, "push_mood"); err != nil {
		return nil, 0, err
	}

	index, err := c.ledger.store.CountEntries(ctx, c.id, caller)
	if err != nil {
		return nil, 0, err
	}
	floor, err := c.ledger.store.LastEntrySeq(ctx, c.id, caller)
	if err != nil {
		return nil, 0, err
	}

	now := c.ledger.clock()
	e := &mood.Entry{
		Entity:     types.NewEntity(now),
		ID:         id.NewMoodID(),
		ContractID: c.id,
		Account:    caller,
		Text:       text,
		Timestamp:  now.Unix(),
		Seq:        c.ledger.nextSeq(now, floor),
	}
	if err := c.ledger.store.AppendEntry(ctx, e); err != nil {
		return nil, 0, err
	}

	c.ledger.plugins.EmitMoodPushed(ctx, e)
	return e, index, nil
}

// MoodsLength returns the number of entries in account's log.
func (c *Contract) MoodsLength(ctx context.Context, account types.Address) (int, error) {
	return c.ledger.store.CountEntries(ctx, c.id, account)
}

// MoodByIndex returns the entry at index in account's log.
func (c *Contract) MoodByIndex(ctx context.Context, account types.Address, index int) (*mood.Entry, error) {
	if err := c.checkIndex(ctx, account, index); err != nil {
		return nil, err
	}
	e, err := c.ledger.store.EntryAt(ctx, c.id, account, index)
	if err != nil {
		return nil, c.boundsError(ctx, account, index, err)
	}
	return e, nil
}

// UpdateMoodByIndex replaces the text of the entry at index in the owner's
// own log. The entry keeps its original timestamp.
func (c *Contract) UpdateMoodByIndex(ctx context.Context, caller types.Address, index int, text string) (*mood.Entry, error) {
	c.ledger.writeMu.Lock()
	defer c.ledger.writeMu.Unlock()

	owner, err := c.requireOwner(ctx, caller, "update_mood")
	if err != nil {
		return nil, err
	}
	if err := c.checkIndex(ctx, owner, index); err != nil {
		return nil, err
	}

	e, err := c.ledger.store.UpdateEntryAt(ctx, c.id, owner, index, text, c.ledger.clock())
	if err != nil {
		return nil, c.boundsError(ctx, owner, index, err)
	}

	c.ledger.plugins.EmitMoodUpdated(ctx, e, index)
	return e, nil
}

// RemoveMoodByIndex deletes the entry at index from account's log. Later
// entries shift down by one position.
func (c *Contract) RemoveMoodByIndex(ctx context.Context, caller, account types.Address, index int) (*mood.Entry, error) {
	c.ledger.writeMu.Lock()
	defer c.ledger.writeMu.Unlock()

	if _, err := c.requireOwner(ctx, caller, "remove_mood"); err != nil {
		return nil, err
	}
	if err := c.checkIndex(ctx, account, index); err != nil {
		return nil, err
	}

	e, err := c.ledger.store.RemoveEntryAt(ctx, c.id, account, index)
	if err != nil {
		return nil, c.boundsError(ctx, account, index, err)
	}

	c.ledger.plugins.EmitMoodRemoved(ctx, e, index)
	return e, nil
}

// RemoveMoods empties account's log. Clearing an empty log succeeds.
func (c *Contract) RemoveMoods(ctx context.Context, caller, account types.Address) error {
	c.ledger.writeMu.Lock()
	defer c.ledger.writeMu.Unlock()

	if _, err := c.requireOwner(ctx, caller, "remove_moods"); err != nil {
		return err
	}

	n, err := c.ledger.store.ClearEntries(ctx, c.id, account)
	if err != nil {
		return err
	}

	c.ledger.plugins.EmitMoodsCleared(ctx, c.id, account, n)
	return nil
}

// checkIndex requires 0 <= index < length of account's log.
func (c *Contract) checkIndex(ctx context.Context, account types.Address, index int) error {
	n, err := c.ledger.store.CountEntries(ctx, c.id, account)
	if err != nil {
		return err
	}
	if index < 0 || index >= n {
		return &IndexOutOfBoundsError{Account: account, Index: index, Length: n}
	}
	return nil
}

// boundsError upgrades a bare store ErrIndexOutOfBounds to the typed error.
func (c *Contract) boundsError(ctx context.Context, account types.Address, index int, err error) error {
	var typed *IndexOutOfBoundsError
	if !errors.Is(err, ErrIndexOutOfBounds) || errors.As(err, &typed) {
		return err
	}
	n, cerr := c.ledger.store.CountEntries(ctx, c.id, account)
	if cerr != nil {
		return err
	}
	return &IndexOutOfBoundsError{Account: account, Index: index, Length: n}
}

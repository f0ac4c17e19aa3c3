// Package dailymood provides an owner-controlled mood log engine for Go
// applications.
//
// A deployed contract holds one owner, an ordered allowlist and one mood log
// per account. Allowed accounts append short timestamped text entries to
// their own log; the owner curates the allowlist and may edit or delete
// entries by position. It provides:
//
//   - An allowlist in which the zero address admits every account
//   - Per-account logs addressed by 0-based index, compacted on removal
//   - Typed Unauthorized and IndexOutOfBounds errors
//   - Pluggable stores (memory, badger, redis, SQLite, PostgreSQL, MongoDB)
//   - Plugin hooks for audit trails and metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/dailymood"
//	    "github.com/xraph/dailymood/store/memory"
//	)
//
//	l := dailymood.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	// Allow everyone by seeding the allowlist with the zero address.
//	c, err := l.Deploy(ctx, owner, []dailymood.Address{dailymood.ZeroAddress})
//
//	entry, err := c.PushMood(ctx, alice, "happy")
//	n, err := c.MoodsLength(ctx, alice)
//
// # Authorization
//
// Every mutating method takes the calling account explicitly. Owner-only
// methods fail with an *UnauthorizedAccountError for any other caller;
// PushMood fails the same way for accounts outside the allowlist. The check
// runs before index validation, so an unauthorized call with a bad index
// reports Unauthorized.
//
//	if dailymood.IsUnauthorized(err) { ... }
//	if dailymood.IsOutOfBounds(err) { ... }
//
// # Ordering
//
// Calls that mutate state are serialised by the engine and applied one at a
// time. Entries carry a monotonic sequence number; an entry's index is its
// position in that order and shifts down when an earlier entry is removed.
//
// # TypeID
//
// Records use TypeID identifiers:
//
//	dmc_01h2xcejqtf2nbrexx3vqjhp41   // Contract ID
//	alw_01h2xcejqtf2nbrexx3vqjhp41   // Allowlist member ID
//	mood_01h455vb4pex5vsknk084sn02q  // Mood entry ID
package dailymood

package dailymood

import "github.com/xraph/dailymood/id"

// ID is the primary identifier type for all dailymood records.
type ID = id.ID

// Prefix identifies the record kind encoded in a TypeID.
type Prefix = id.Prefix

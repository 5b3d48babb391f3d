package taskpool

import "github.com/pondworks/taskpool/id"

// ID is the primary identifier type for all taskpool entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

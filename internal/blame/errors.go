package blame

import "errors"

// ErrNoHead is returned when StartCommit is unset and the object store
// has no resolvable head (§7, No-head).
var ErrNoHead = errors.New("blame: object store has no head commit")

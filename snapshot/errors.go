package snapshot

import "errors"

// ErrMissingKeys is returned by SetThreadLocalsFrom when it is called
// with an explicit empty key list and the owning Factory is
// configured with EmptyKeysFail.
var ErrMissingKeys = errors.New("snapshot: no keys given and factory is configured to reject that")

// ErrScopeClosed is returned by Scope.Close when the scope has already
// been closed once. The core does not require close-once to be
// enforced — a second close is a defensive no-op — so by default Close
// never returns this; it is surfaced only
// through Scope.CloseStrict for callers that want the defensive check.
var ErrScopeClosed = errors.New("snapshot: scope already closed")

// ErrIllegalRestore is an optional, defensive error a Scope can
// surface when closing detects that the ambient state it is about to
// restore does not match what it installed at open time — a sign of
// out-of-order nested scope closing. The default Close
// never returns it; CloseStrict does.
var ErrIllegalRestore = errors.New("snapshot: thread-local state changed out from under this scope")

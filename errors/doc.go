/*
Package errors implements the error taxonomy of the custody core.

Reuse the root errors declared in this package whenever possible and only
register a new one with Register(code, description) when an extension needs
a category of its own. Codes are unique and are what a client should switch
on.

Create errors at the point of failure with ErrXyz.New("...") or
errors.Wrap(err, "...") so that a stacktrace is attached. Only the innermost
wrap records a stacktrace.

	%s prints the error message
	%+v prints the full stack trace

Any error returned from a handler aborts the whole transaction; the caller
receives the labeled failure and the state from before the transaction.
*/
package errors

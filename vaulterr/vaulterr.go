// Package vaulterr defines the error taxonomy shared by every layer of the
// vault: the bucket engine, the instance manager and the sync protocol all
// classify failures through these classes instead of inventing their own
// sentinel errors.
package vaulterr

import "github.com/zeebo/errs"

// Classes mirror the taxonomy in the design: authentication, existence,
// ingest-pipeline and infrastructure failures each get their own class so
// callers can branch with vaulterr.Is (or Class.Has) without parsing messages.
var (
	PasswordRequired    = errs.Class("password required")
	InvalidPassword     = errs.Class("invalid password")
	InvalidLocation     = errs.Class("invalid bucket location")
	Duplicate           = errs.Class("duplicate")
	NotFound            = errs.Class("not found")
	MissingProgram      = errs.Class("missing external program")
	UnsupportedMimeType = errs.Class("unsupported mime type")
	UnexpectedOutput    = errs.Class("unexpected external tool output")
	IO                  = errs.Class("io")
	SQL                 = errs.Class("sql")
	InvalidAuthToken    = errs.Class("invalid auth token")
	NotImplemented      = errs.Class("not implemented")
	Internal            = errs.Class("internal invariant violation")
)

// Is reports whether err was produced (directly or wrapped) by class.
func Is(err error, class errs.Class) bool {
	// Class.Has matches on the class variable's address, so look up the
	// package-level class rather than calling Has on the by-value copy.
	for _, c := range []*errs.Class{
		&PasswordRequired, &InvalidPassword, &InvalidLocation, &Duplicate,
		&NotFound, &MissingProgram, &UnsupportedMimeType, &UnexpectedOutput,
		&IO, &SQL, &InvalidAuthToken, &NotImplemented, &Internal,
	} {
		if *c == class {
			return c.Has(err)
		}
	}
	return class.Has(err)
}

package domain

// ResolutionState describes how far session bootstrapping has progressed.
type ResolutionState string

const (
	StateUnresolved              ResolutionState = "unresolved"
	StateResolvedAuthenticated   ResolutionState = "resolved-authenticated"
	StateResolvedUnauthenticated ResolutionState = "resolved-unauthenticated"
)

// Resolved reports whether bootstrapping has finished.
func (s ResolutionState) Resolved() bool {
	return s == StateResolvedAuthenticated || s == StateResolvedUnauthenticated
}

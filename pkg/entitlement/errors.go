package entitlement

import "errors"

var (
	// ErrBillingStateNotFound is returned by stores when a workspace has no billing record.
	// The service treats it as an implicit free/active workspace.
	ErrBillingStateNotFound = errors.New("billing state not found")

	// ErrBillingStateUnavailable means access could not be determined because the
	// billing state store failed. It is never reported as a denial.
	ErrBillingStateUnavailable = errors.New("billing state store unavailable")

	ErrInvalidBillingState = errors.New("invalid billing state")
	ErrInvalidStatus       = errors.New("invalid subscription status")
	ErrMissingWorkspaceID  = errors.New("workspace ID is required")
)

package provision

import (
	"errors"
	"fmt"
)

// Code identifies a hard provisioning failure. Non-critical step
// failures (business profile, subscription, profile upsert, onboarding
// state) are logged and never surface as a Code.
type Code string

const (
	CodeUnauthenticated          Code = "unauthenticated"
	CodeInvalidInput             Code = "invalid_input"
	CodeOrganizationCreateFailed Code = "organization_create_failed"
	CodeMembershipCreateFailed   Code = "membership_create_failed"
)

type Error struct {
	Code Code
	Step string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provision: %s at %s", e.Code, e.Step)
	}
	return fmt.Sprintf("provision: %s at %s: %v", e.Code, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, step string, err error) *Error {
	return &Error{Code: code, Step: step, Err: err}
}

// IsCode reports whether err is a provisioning error with the given code.
func IsCode(err error, code Code) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == code
}

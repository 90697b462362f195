// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors contracts revert with. A revert aborts the whole
// invocation and surfaces its kind plus a human readable reason.
package reverts

import (
	"errors"
	"fmt"
)

// Kind is the coarse category of a revert.
type Kind uint8

const (
	Generic Kind = iota
	Unauthorized
	NotFound
	Overflow
	InvalidParameter
	InvariantViolation
	InvalidAddress
	NoMembersToDistributeTo
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not found"
	case Overflow:
		return "overflow"
	case InvalidParameter:
		return "invalid parameter"
	case InvariantViolation:
		return "invariant violation"
	case InvalidAddress:
		return "invalid address"
	case NoMembersToDistributeTo:
		return "no members to distribute to"
	default:
		return "revert"
	}
}

type ErrRevert struct {
	kind    Kind
	message string
}

// New creates a generic revert.
func New(message string) *ErrRevert {
	return &ErrRevert{message: message}
}

// Newf creates a revert of the given kind.
func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return &ErrRevert{kind: kind, message: fmt.Sprintf(format, args...)}
}

func (e *ErrRevert) Error() string {
	return e.kind.String() + ": " + e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Reason() string {
	return e.message
}

// Is matches the kind sentinels below, so errors.Is(err, reverts.ErrUnauthorized) works.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	if !ok {
		return false
	}
	return t.message == "" && t.kind == e.kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthorized       = &ErrRevert{kind: Unauthorized}
	ErrNotFound           = &ErrRevert{kind: NotFound}
	ErrOverflow           = &ErrRevert{kind: Overflow}
	ErrInvalidParameter   = &ErrRevert{kind: InvalidParameter}
	ErrInvariantViolation = &ErrRevert{kind: InvariantViolation}
	ErrInvalidAddress     = &ErrRevert{kind: InvalidAddress}
	ErrNoMembers          = &ErrRevert{kind: NoMembersToDistributeTo}
)

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of a revert, and false for other errors.
func KindOf(err error) (Kind, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind, true
	}
	return Generic, false
}

func Unauthorizedf(format string, args ...any) error { return Newf(Unauthorized, format, args...) }
func NotFoundf(format string, args ...any) error     { return Newf(NotFound, format, args...) }
func Overflowf(format string, args ...any) error     { return Newf(Overflow, format, args...) }

func InvalidParameterf(format string, args ...any) error {
	return Newf(InvalidParameter, format, args...)
}

func InvariantViolationf(format string, args ...any) error {
	return Newf(InvariantViolation, format, args...)
}

func InvalidAddressf(format string, args ...any) error {
	return Newf(InvalidAddress, format, args...)
}

package models

import (
	"encoding/json"
	"errors"
)

type SliceState string

const (
	SliceStatePending    SliceState = "pendiente"
	SliceStateInProgress SliceState = "en_proceso"
	SliceStateComplete   SliceState = "completo"
)

type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

type MatchOrigin string

const (
	MatchOriginMatched       MatchOrigin = "matched"
	MatchOriginPhysicalOnly  MatchOrigin = "physical_only"
	MatchOriginReferenceOnly MatchOrigin = "reference_only"
)

func (o MatchOrigin) IsValid() bool {
	switch o {
	case MatchOriginMatched, MatchOriginPhysicalOnly, MatchOriginReferenceOnly:
		return true
	}
	return false
}

// convert input to enum type
func (o *MatchOrigin) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("origin must be string")
	}
	if !MatchOrigin(str).IsValid() {
		return errors.New("invalid origin: " + str)
	}
	*o = MatchOrigin(str)
	return nil
}

type UserRole string

const (
	UserRoleSupervisor UserRole = "supervisor"
	UserRoleEmployee   UserRole = "empleado"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleSupervisor || r == UserRoleEmployee
}

// convert input to enum type
func (r *UserRole) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("role must be string")
	}
	if !UserRole(str).IsValid() {
		return errors.New("invalid role: " + str)
	}
	*r = UserRole(str)
	return nil
}

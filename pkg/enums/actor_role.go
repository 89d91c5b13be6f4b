package enums

import (
	"fmt"
	"strings"
)

// ActorRole identifies the market role an actor acts in.
type ActorRole string

const (
	ActorRoleEnergySupplier           ActorRole = "energy_supplier"
	ActorRoleBalanceResponsibleParty  ActorRole = "balance_responsible_party"
	ActorRoleMeteredDataResponsible   ActorRole = "metered_data_responsible"
	ActorRoleGridAccessProvider       ActorRole = "grid_access_provider"
	ActorRoleSystemOperator           ActorRole = "system_operator"
	ActorRoleDelegated                ActorRole = "delegated"
	ActorRoleMeteredDataAdministrator ActorRole = "metered_data_administrator"
)

var validActorRoles = []ActorRole{
	ActorRoleEnergySupplier,
	ActorRoleBalanceResponsibleParty,
	ActorRoleMeteredDataResponsible,
	ActorRoleGridAccessProvider,
	ActorRoleSystemOperator,
	ActorRoleDelegated,
	ActorRoleMeteredDataAdministrator,
}

// Wire codes used on market documents.
var actorRoleCodes = map[ActorRole]string{
	ActorRoleEnergySupplier:           "DDQ",
	ActorRoleBalanceResponsibleParty:  "DDK",
	ActorRoleMeteredDataResponsible:   "MDR",
	ActorRoleGridAccessProvider:       "DDM",
	ActorRoleSystemOperator:           "EZ",
	ActorRoleDelegated:                "DEL",
	ActorRoleMeteredDataAdministrator: "DGL",
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Code returns the document wire code for the role.
func (r ActorRole) Code() string {
	return actorRoleCodes[r]
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}

// ActorRoleFromCode resolves a document wire code back to a role.
func ActorRoleFromCode(code string) (ActorRole, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for role, candidate := range actorRoleCodes {
		if candidate == code {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown actor role code %q", code)
}

package authz

import (
	"github.com/voltbridge/markethub/pkg/enums"
)

// roleRules centralizes the per-role business rules instead of hanging
// behavior off the role values themselves.
type roleRules struct {
	canRequest               map[enums.ProcessType]bool
	requiresExplicitGridArea bool
	canActAsDelegate         bool
}

var rulesByRole = map[enums.ActorRole]roleRules{
	enums.ActorRoleEnergySupplier: {
		canRequest: map[enums.ProcessType]bool{
			enums.ProcessTypeRequestEnergyResults:    true,
			enums.ProcessTypeRequestWholesaleResults: true,
		},
	},
	enums.ActorRoleBalanceResponsibleParty: {
		canRequest: map[enums.ProcessType]bool{
			enums.ProcessTypeRequestEnergyResults: true,
		},
	},
	enums.ActorRoleMeteredDataResponsible: {
		canRequest: map[enums.ProcessType]bool{
			enums.ProcessTypeRequestEnergyResults: true,
			enums.ProcessTypeSubmitMeteredData:    true,
		},
	},
	enums.ActorRoleGridAccessProvider: {
		canRequest: map[enums.ProcessType]bool{
			enums.ProcessTypeRequestWholesaleResults: true,
			enums.ProcessTypeSubmitMeteredData:       true,
		},
	},
	enums.ActorRoleSystemOperator: {
		canRequest: map[enums.ProcessType]bool{
			enums.ProcessTypeRequestWholesaleResults: true,
		},
		requiresExplicitGridArea: true,
	},
	enums.ActorRoleDelegated: {
		canRequest:       map[enums.ProcessType]bool{},
		canActAsDelegate: true,
	},
	enums.ActorRoleMeteredDataAdministrator: {
		canRequest: map[enums.ProcessType]bool{},
	},
}

// effectiveRequestRole applies the legacy grid-operator substitution: grid
// access providers issue energy-result requests under the metered data
// responsible role. Scoped to exactly this role pair; nothing else
// substitutes.
func effectiveRequestRole(role enums.ActorRole, processType enums.ProcessType) enums.ActorRole {
	if role == enums.ActorRoleGridAccessProvider && processType == enums.ProcessTypeRequestEnergyResults {
		return enums.ActorRoleMeteredDataResponsible
	}
	return role
}

// RoleMayRequest reports whether the role is permitted to issue the given
// request type. Delegated actors are permitted anything their delegator may
// request; that is checked against the delegator's role by the resolver.
func RoleMayRequest(role enums.ActorRole, processType enums.ProcessType) bool {
	effective := effectiveRequestRole(role, processType)
	rules, ok := rulesByRole[effective]
	if !ok {
		return false
	}
	return rules.canRequest[processType]
}

// RoleMayActAsDelegate reports whether the role may issue requests on behalf
// of another actor.
func RoleMayActAsDelegate(role enums.ActorRole) bool {
	rules, ok := rulesByRole[role]
	if !ok {
		return false
	}
	return rules.canActAsDelegate
}

// RoleRequiresExplicitGridArea reports whether requests from this role must
// name a grid area instead of relying on ownership expansion.
func RoleRequiresExplicitGridArea(role enums.ActorRole) bool {
	rules, ok := rulesByRole[role]
	if !ok {
		return false
	}
	return rules.requiresExplicitGridArea
}

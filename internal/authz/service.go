package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/voltbridge/markethub/pkg/errors"

	"github.com/voltbridge/markethub/pkg/enums"
)

// ResolveInput identifies who is asking, who the data is for, and what they
// are asking about. AsOf is the instant delegation validity is evaluated at;
// it is recorded once at request time and never re-evaluated.
type ResolveInput struct {
	AuthenticatedNumber string
	AuthenticatedRole   enums.ActorRole
	OnBehalfOfNumber    string
	OnBehalfOfRole      enums.ActorRole
	GridArea            *string
	ProcessType         enums.ProcessType
	AsOf                time.Time
}

// Resolution is the effective requester plus the grid areas they may receive
// data for. An empty GridAreas set means zero processes, not a failure.
type Resolution struct {
	RequesterNumber string
	RequesterRole   enums.ActorRole
	GridAreas       []string
}

// IsDelegated reports whether the caller asked on behalf of another actor.
func (in ResolveInput) IsDelegated() bool {
	return in.OnBehalfOfNumber != "" && in.OnBehalfOfNumber != in.AuthenticatedNumber
}

// ServiceParams groups dependencies for the resolver service.
type ServiceParams struct {
	Repo Repository
}

// Service resolves who may receive data for a request.
type Service struct {
	repo Repository
}

// NewService builds an authorization resolver.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Resolve determines the effective requester and the grid areas the request
// expands to. Role permission is checked before any delegation lookup, so an
// unauthorized role never creates a process.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (*Resolution, error) {
	if strings.TrimSpace(in.AuthenticatedNumber) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "authenticated actor number is required")
	}
	if !in.AuthenticatedRole.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid actor role %q", in.AuthenticatedRole))
	}
	if !in.ProcessType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid process type %q", in.ProcessType))
	}
	if in.AsOf.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "as-of instant is required")
	}

	if !in.IsDelegated() {
		return s.resolveSelf(ctx, in)
	}
	return s.resolveDelegated(ctx, in)
}

func (s *Service) resolveSelf(ctx context.Context, in ResolveInput) (*Resolution, error) {
	if !RoleMayRequest(in.AuthenticatedRole, in.ProcessType) {
		return nil, apperrors.New(
			apperrors.CodeUnauthorizedRole,
			fmt.Sprintf("role %s may not issue %s requests", in.AuthenticatedRole, in.ProcessType),
		)
	}
	if in.GridArea == nil && RoleRequiresExplicitGridArea(in.AuthenticatedRole) {
		return nil, apperrors.New(
			apperrors.CodeValidation,
			fmt.Sprintf("role %s must name a grid area", in.AuthenticatedRole),
		)
	}

	resolution := &Resolution{
		RequesterNumber: in.AuthenticatedNumber,
		RequesterRole:   in.AuthenticatedRole,
	}

	// An actor requesting as themselves is always entitled to their own
	// data, even for grid areas they have delegated away.
	if in.GridArea != nil {
		resolution.GridAreas = []string{*in.GridArea}
		return resolution, nil
	}

	areas, err := s.repo.ListOwnedGridAreas(ctx, in.AuthenticatedNumber)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing owned grid areas")
	}
	resolution.GridAreas = areas
	return resolution, nil
}

func (s *Service) resolveDelegated(ctx context.Context, in ResolveInput) (*Resolution, error) {
	// Permission is evaluated against the named actor's role; the delegate
	// only carries the request.
	if !in.OnBehalfOfRole.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid on-behalf-of role %q", in.OnBehalfOfRole))
	}
	if !RoleMayActAsDelegate(in.AuthenticatedRole) {
		return nil, apperrors.New(
			apperrors.CodeUnauthorizedRole,
			fmt.Sprintf("role %s may not act on behalf of another actor", in.AuthenticatedRole),
		)
	}
	if !RoleMayRequest(in.OnBehalfOfRole, in.ProcessType) {
		return nil, apperrors.New(
			apperrors.CodeUnauthorizedRole,
			fmt.Sprintf("role %s may not issue %s requests", in.OnBehalfOfRole, in.ProcessType),
		)
	}

	delegations, err := s.repo.ListActiveDelegations(ctx, in.OnBehalfOfNumber, in.AuthenticatedNumber, in.ProcessType, in.AsOf)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing delegations")
	}

	resolution := &Resolution{
		RequesterNumber: in.OnBehalfOfNumber,
		RequesterRole:   in.OnBehalfOfRole,
	}

	if in.GridArea != nil {
		for _, delegation := range delegations {
			if delegation.GridArea == *in.GridArea {
				resolution.GridAreas = []string{*in.GridArea}
				return resolution, nil
			}
		}
		return nil, apperrors.New(
			apperrors.CodeNoActiveDelegation,
			fmt.Sprintf("no active delegation covers grid area %s", *in.GridArea),
		)
	}

	seen := map[string]bool{}
	for _, delegation := range delegations {
		if seen[delegation.GridArea] {
			continue
		}
		seen[delegation.GridArea] = true
		resolution.GridAreas = append(resolution.GridAreas, delegation.GridArea)
	}
	return resolution, nil
}

package authz

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
	apperrors "github.com/voltbridge/markethub/pkg/errors"
)

type fakeRepo struct {
	delegations []models.Delegation
	ownedAreas  map[string][]string
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) ListActiveDelegations(_ context.Context, delegator, delegate string, processType enums.ProcessType, asOf time.Time) ([]models.Delegation, error) {
	var out []models.Delegation
	for _, d := range f.delegations {
		if d.DelegatorNumber != delegator || d.DelegateNumber != delegate {
			continue
		}
		if d.ProcessType != processType {
			continue
		}
		if !d.ActiveAt(asOf) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRepo) ListOwnedGridAreas(_ context.Context, ownerNumber string) ([]string, error) {
	return f.ownedAreas[ownerNumber], nil
}

func newService(t *testing.T, repo Repository) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func strPtr(s string) *string { return &s }

func TestResolveSelfExplicitGridArea(t *testing.T) {
	svc := newService(t, &fakeRepo{})

	res, err := svc.Resolve(context.Background(), ResolveInput{
		AuthenticatedNumber: "5790001330552",
		AuthenticatedRole:   enums.ActorRoleEnergySupplier,
		GridArea:            strPtr("512"),
		ProcessType:         enums.ProcessTypeRequestEnergyResults,
		AsOf:                time.Now(),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.RequesterNumber != "5790001330552" {
		t.Fatalf("unexpected requester %s", res.RequesterNumber)
	}
	if len(res.GridAreas) != 1 || res.GridAreas[0] != "512" {
		t.Fatalf("unexpected grid areas %v", res.GridAreas)
	}
}

func TestResolveSelfExpandsOwnership(t *testing.T) {
	svc := newService(t, &fakeRepo{
		ownedAreas: map[string][]string{
			"5790000000005": {"512", "804"},
		},
	})

	res, err := svc.Resolve(context.Background(), ResolveInput{
		AuthenticatedNumber: "5790000000005",
		AuthenticatedRole:   enums.ActorRoleGridAccessProvider,
		ProcessType:         enums.ProcessTypeRequestEnergyResults,
		AsOf:                time.Now(),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.GridAreas) != 2 {
		t.Fatalf("expected 2 grid areas, got %v", res.GridAreas)
	}
}

func TestResolveUnauthorizedRole(t *testing.T) {
	svc := newService(t, &fakeRepo{})

	_, err := svc.Resolve(context.Background(), ResolveInput{
		AuthenticatedNumber: "5790001330552",
		AuthenticatedRole:   enums.ActorRoleBalanceResponsibleParty,
		GridArea:            strPtr("512"),
		ProcessType:         enums.ProcessTypeRequestWholesaleResults,
		AsOf:                time.Now(),
	})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeUnauthorizedRole {
		t.Fatalf("expected UNAUTHORIZED_ROLE, got %v", err)
	}
}

func TestResolveDelegationBoundary(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	stop := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := newService(t, &fakeRepo{
		delegations: []models.Delegation{{
			DelegatorNumber: "5790001330552",
			DelegateNumber:  "5790009999999",
			GridArea:        "512",
			ProcessType:     enums.ProcessTypeRequestEnergyResults,
			StartsAt:        start,
			StopsAt:         &stop,
		}},
	})

	input := ResolveInput{
		AuthenticatedNumber: "5790009999999",
		AuthenticatedRole:   enums.ActorRoleDelegated,
		OnBehalfOfNumber:    "5790001330552",
		OnBehalfOfRole:      enums.ActorRoleEnergySupplier,
		GridArea:            strPtr("512"),
		ProcessType:         enums.ProcessTypeRequestEnergyResults,
	}

	cases := []struct {
		name       string
		asOf       time.Time
		authorized bool
	}{
		{"before start", start.Add(-time.Second), false},
		{"at start", start, true},
		{"inside window", start.AddDate(0, 1, 0), true},
		{"just before stop", stop.Add(-time.Second), true},
		{"at stop", stop, false},
		{"after stop", stop.Add(time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := input
			in.AsOf = tc.asOf
			res, err := svc.Resolve(context.Background(), in)
			if tc.authorized {
				if err != nil {
					t.Fatalf("expected authorization, got %v", err)
				}
				if len(res.GridAreas) != 1 || res.GridAreas[0] != "512" {
					t.Fatalf("unexpected grid areas %v", res.GridAreas)
				}
				return
			}
			typed := apperrors.As(err)
			if typed == nil || typed.Code() != apperrors.CodeNoActiveDelegation {
				t.Fatalf("expected NO_ACTIVE_DELEGATION, got %v", err)
			}
		})
	}
}

func TestResolveDelegatedUnionOfGridAreas(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newService(t, &fakeRepo{
		delegations: []models.Delegation{
			{
				DelegatorNumber: "5790001330552",
				DelegateNumber:  "5790009999999",
				GridArea:        "512",
				ProcessType:     enums.ProcessTypeRequestEnergyResults,
				StartsAt:        start,
			},
			{
				DelegatorNumber: "5790001330552",
				DelegateNumber:  "5790009999999",
				GridArea:        "804",
				ProcessType:     enums.ProcessTypeRequestEnergyResults,
				StartsAt:        start,
			},
			{
				// second delegation for the same area must not duplicate it
				DelegatorNumber: "5790001330552",
				DelegateNumber:  "5790009999999",
				GridArea:        "512",
				ProcessType:     enums.ProcessTypeRequestEnergyResults,
				StartsAt:        start.AddDate(0, 1, 0),
			},
		},
	})

	res, err := svc.Resolve(context.Background(), ResolveInput{
		AuthenticatedNumber: "5790009999999",
		AuthenticatedRole:   enums.ActorRoleDelegated,
		OnBehalfOfNumber:    "5790001330552",
		OnBehalfOfRole:      enums.ActorRoleEnergySupplier,
		ProcessType:         enums.ProcessTypeRequestEnergyResults,
		AsOf:                start.AddDate(0, 2, 0),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.GridAreas) != 2 {
		t.Fatalf("expected 2 grid areas, got %v", res.GridAreas)
	}
	if res.RequesterNumber != "5790001330552" || res.RequesterRole != enums.ActorRoleEnergySupplier {
		t.Fatalf("effective requester should be the delegator, got %s/%s", res.RequesterNumber, res.RequesterRole)
	}
}

func TestResolveOwnDataExemption(t *testing.T) {
	// The supplier delegated grid area 512 away but still requests as
	// themselves; the delegation must not block them.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newService(t, &fakeRepo{
		delegations: []models.Delegation{{
			DelegatorNumber: "5790001330552",
			DelegateNumber:  "5790009999999",
			GridArea:        "512",
			ProcessType:     enums.ProcessTypeRequestEnergyResults,
			StartsAt:        start,
		}},
	})

	res, err := svc.Resolve(context.Background(), ResolveInput{
		AuthenticatedNumber: "5790001330552",
		AuthenticatedRole:   enums.ActorRoleEnergySupplier,
		OnBehalfOfNumber:    "5790001330552",
		OnBehalfOfRole:      enums.ActorRoleEnergySupplier,
		GridArea:            strPtr("512"),
		ProcessType:         enums.ProcessTypeRequestEnergyResults,
		AsOf:                start.AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.GridAreas) != 1 || res.GridAreas[0] != "512" {
		t.Fatalf("unexpected grid areas %v", res.GridAreas)
	}
}

func TestResolveSystemOperatorRequiresGridArea(t *testing.T) {
	svc := newService(t, &fakeRepo{})

	_, err := svc.Resolve(context.Background(), ResolveInput{
		AuthenticatedNumber: "5790000000001",
		AuthenticatedRole:   enums.ActorRoleSystemOperator,
		ProcessType:         enums.ProcessTypeRequestWholesaleResults,
		AsOf:                time.Now(),
	})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestGridAccessProviderSubstitution(t *testing.T) {
	if !RoleMayRequest(enums.ActorRoleGridAccessProvider, enums.ProcessTypeRequestEnergyResults) {
		t.Fatal("grid access provider should issue energy-result requests via role substitution")
	}
	if RoleMayRequest(enums.ActorRoleSystemOperator, enums.ProcessTypeRequestEnergyResults) {
		t.Fatal("substitution must not generalize to other roles")
	}
}

package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voltbridge/markethub/internal/authz"
	dbtypes "github.com/voltbridge/markethub/pkg/db/types"
	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
	apperrors "github.com/voltbridge/markethub/pkg/errors"
)

// DispatchInput is everything the correlator needs to spawn processes for an
// authorized request. GridAreas comes from the resolver; one process is
// created per area.
type DispatchInput struct {
	RequestTransactionID string
	SeriesTransactionID  string
	RequestedByNumber    string
	RequestedByRole      enums.ActorRole
	Resolution           authz.Resolution
	ProcessType          enums.ProcessType
	BusinessReason       enums.BusinessReason
	RequestedFormat      enums.DocumentFormat
	PeriodStart          time.Time
	PeriodEnd            time.Time
	MeteringPointType    *enums.MeteringPointType
	SettlementMethod     *enums.SettlementMethod
	ChargeTypes          []enums.ChargeType
}

// ServiceParams groups dependencies for the correlator service.
type ServiceParams struct {
	Repo Repository
	Now  func() time.Time
}

// Service tracks processes from dispatch to their terminal state and matches
// asynchronous results back to them.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a process correlator.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: params.Repo, now: now}, nil
}

// Dispatch persists one process per resolved grid area. Re-dispatching the
// same request is a no-op thanks to the keyed upsert; the stored rows for
// this series are re-read and returned either way. Processes spawned by the
// request's other series are never returned, so each calculation command
// lists only its own series' processes.
func (s *Service) Dispatch(ctx context.Context, in DispatchInput) ([]models.Process, error) {
	if strings.TrimSpace(in.RequestTransactionID) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "request transaction id is required")
	}
	if !in.ProcessType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid process type %q", in.ProcessType))
	}
	if !in.RequestedFormat.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid document format %q", in.RequestedFormat))
	}
	// Period sanity is the calculation engine's call: an inverted period is
	// dispatched and comes back as a business-rule rejection, not failed here.

	processes := make([]*models.Process, 0, len(in.Resolution.GridAreas))
	for _, area := range in.Resolution.GridAreas {
		processes = append(processes, &models.Process{
			ID:                   uuid.New(),
			RequestTransactionID: in.RequestTransactionID,
			SeriesTransactionID:  in.SeriesTransactionID,
			RequestedByNumber:    in.RequestedByNumber,
			RequestedByRole:      in.RequestedByRole,
			RequesterNumber:      in.Resolution.RequesterNumber,
			RequesterRole:        in.Resolution.RequesterRole,
			GridArea:             area,
			ProcessType:          in.ProcessType,
			BusinessReason:       in.BusinessReason,
			RequestedFormat:      in.RequestedFormat,
			PeriodStart:          in.PeriodStart,
			PeriodEnd:            in.PeriodEnd,
			MeteringPointType:    in.MeteringPointType,
			SettlementMethod:     in.SettlementMethod,
			ChargeTypes:          dbtypes.ChargeTypes(in.ChargeTypes),
			State:                enums.ProcessStateDispatched,
		})
	}

	if err := s.repo.CreateProcesses(ctx, processes); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating processes")
	}

	stored, err := s.repo.ListBySeriesTransactionID(ctx, in.RequestTransactionID, in.SeriesTransactionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "reading back processes")
	}
	return stored, nil
}

// CorrelateAccepted resolves the single process an accepted result belongs
// to. An unknown process id is a fatal correlation error.
func (s *Service) CorrelateAccepted(ctx context.Context, processID uuid.UUID) (*models.Process, error) {
	proc, err := s.repo.FindByID(ctx, processID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "looking up process")
	}
	if proc == nil {
		return nil, apperrors.New(
			apperrors.CodeCorrelationMismatch,
			fmt.Sprintf("no process found for id %s", processID),
		)
	}
	return proc, nil
}

// CorrelateRejected resolves every process spawned from the rejected
// request's transaction id. A single rejection closes all of them.
func (s *Service) CorrelateRejected(ctx context.Context, requestTransactionID string) ([]models.Process, error) {
	procs, err := s.repo.ListByRequestTransactionID(ctx, requestTransactionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "looking up processes")
	}
	if len(procs) == 0 {
		return nil, apperrors.New(
			apperrors.CodeCorrelationMismatch,
			fmt.Sprintf("no processes found for transaction %s", requestTransactionID),
		)
	}
	return procs, nil
}

// CompleteAccepted transitions one process to accepted.
func (s *Service) CompleteAccepted(ctx context.Context, processID uuid.UUID) error {
	if err := s.repo.MarkAccepted(ctx, processID, s.now().UTC()); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "marking process accepted")
	}
	return nil
}

// CompleteRejected transitions every process of the request to rejected and
// records the engine's reason.
func (s *Service) CompleteRejected(ctx context.Context, requestTransactionID, rejectCode, rejectMessage string) error {
	if err := s.repo.MarkRejectedByRequestTransactionID(ctx, requestTransactionID, rejectCode, rejectMessage, s.now().UTC()); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "marking processes rejected")
	}
	return nil
}

package requests

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/voltbridge/markethub/internal/authz"
	"github.com/voltbridge/markethub/internal/process"
	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
	apperrors "github.com/voltbridge/markethub/pkg/errors"
	"github.com/voltbridge/markethub/pkg/logger"
)

// Series is one requested series inside a market request.
type Series struct {
	TransactionID string  `json:"transaction_id" validate:"required"`
	GridArea      *string `json:"grid_area,omitempty"`
}

// MarketRequest is a parsed, schema-valid incoming request. The perimeter
// gateway owns wire parsing; this service owns authorization and dispatch.
type MarketRequest struct {
	TransactionID     string                   `json:"transaction_id" validate:"required"`
	RequestedByNumber string                   `json:"requested_by_number" validate:"required,numeric"`
	RequestedByRole   enums.ActorRole          `json:"requested_by_role" validate:"required"`
	OnBehalfOfNumber  string                   `json:"on_behalf_of_number,omitempty"`
	OnBehalfOfRole    enums.ActorRole          `json:"on_behalf_of_role,omitempty"`
	ProcessType       enums.ProcessType        `json:"process_type" validate:"required"`
	BusinessReason    enums.BusinessReason     `json:"business_reason" validate:"required"`
	Format            enums.DocumentFormat     `json:"format" validate:"required"`
	GridArea          *string                  `json:"grid_area,omitempty"`
	PeriodStart       time.Time                `json:"period_start" validate:"required"`
	PeriodEnd         time.Time                `json:"period_end" validate:"required"`
	MeteringPointType *enums.MeteringPointType `json:"metering_point_type,omitempty"`
	SettlementMethod  *enums.SettlementMethod  `json:"settlement_method,omitempty"`
	ChargeTypes       []enums.ChargeType       `json:"charge_types,omitempty"`
	Series            []Series                 `json:"series" validate:"required,min=1,dive"`
}

// calculationCommand is the dispatch envelope published to the calculation
// engine topic.
type calculationCommand struct {
	RequestTransactionID string   `json:"request_transaction_id"`
	SeriesTransactionID  string   `json:"series_transaction_id"`
	ProcessIDs           []string `json:"process_ids"`
	RequesterNumber      string   `json:"requester_number"`
	RequesterRole        string   `json:"requester_role"`
	ProcessType          string   `json:"process_type"`
	BusinessReason       string   `json:"business_reason"`
	GridAreas            []string `json:"grid_areas"`
	PeriodStart          string   `json:"period_start"`
	PeriodEnd            string   `json:"period_end"`
	MeteringPointType    string   `json:"metering_point_type,omitempty"`
	SettlementMethod     string   `json:"settlement_method,omitempty"`
	ChargeTypes          []string `json:"charge_types,omitempty"`
}

// ServiceParams groups dependencies for the intake service.
type ServiceParams struct {
	Authz     *authz.Service
	Processes *process.Service
	Publisher CommandPublisher
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service takes authorized market requests from authorization through
// process creation to calculation dispatch.
type Service struct {
	authz     *authz.Service
	processes *process.Service
	publisher CommandPublisher
	validate  *validator.Validate
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds an intake service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Authz == nil {
		return nil, errors.New("authorization resolver is required")
	}
	if params.Processes == nil {
		return nil, errors.New("process service is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("command publisher is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		authz:     params.Authz,
		processes: params.Processes,
		publisher: params.Publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logg:      params.Logger,
		now:       now,
	}, nil
}

// Submit authorizes the request, spawns one process per resolved grid area
// per series, and dispatches the calculation commands. A series whose
// explicit grid area has no covering delegation yields zero processes; the
// remaining series still dispatch.
func (s *Service) Submit(ctx context.Context, req MarketRequest) ([]models.Process, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid market request")
	}
	if err := validateEnums(req); err != nil {
		return nil, err
	}

	asOf := s.now().UTC()
	var created []models.Process

	for _, series := range req.Series {
		gridArea := series.GridArea
		if gridArea == nil {
			gridArea = req.GridArea
		}

		resolution, err := s.authz.Resolve(ctx, authz.ResolveInput{
			AuthenticatedNumber: req.RequestedByNumber,
			AuthenticatedRole:   req.RequestedByRole,
			OnBehalfOfNumber:    req.OnBehalfOfNumber,
			OnBehalfOfRole:      req.OnBehalfOfRole,
			GridArea:            gridArea,
			ProcessType:         req.ProcessType,
			AsOf:                asOf,
		})
		if err != nil {
			if appErr := apperrors.As(err); appErr != nil && appErr.Code() == apperrors.CodeNoActiveDelegation {
				s.logg.Warn(s.logg.WithField(ctx, "series_transaction_id", series.TransactionID),
					"series skipped: no active delegation covers the requested grid area")
				continue
			}
			return nil, err
		}
		if len(resolution.GridAreas) == 0 {
			continue
		}

		procs, err := s.processes.Dispatch(ctx, process.DispatchInput{
			RequestTransactionID: req.TransactionID,
			SeriesTransactionID:  series.TransactionID,
			RequestedByNumber:    req.RequestedByNumber,
			RequestedByRole:      req.RequestedByRole,
			Resolution:           *resolution,
			ProcessType:          req.ProcessType,
			BusinessReason:       req.BusinessReason,
			RequestedFormat:      req.Format,
			PeriodStart:          req.PeriodStart,
			PeriodEnd:            req.PeriodEnd,
			MeteringPointType:    req.MeteringPointType,
			SettlementMethod:     req.SettlementMethod,
			ChargeTypes:          req.ChargeTypes,
		})
		if err != nil {
			return nil, err
		}

		if err := s.publishCommand(ctx, req, series.TransactionID, resolution, procs); err != nil {
			return nil, err
		}
		created = append(created, procs...)
	}

	return created, nil
}

func (s *Service) publishCommand(ctx context.Context, req MarketRequest, seriesTxn string, resolution *authz.Resolution, procs []models.Process) error {
	command := calculationCommand{
		RequestTransactionID: req.TransactionID,
		SeriesTransactionID:  seriesTxn,
		RequesterNumber:      resolution.RequesterNumber,
		RequesterRole:        resolution.RequesterRole.String(),
		ProcessType:          req.ProcessType.String(),
		BusinessReason:       req.BusinessReason.String(),
		GridAreas:            resolution.GridAreas,
		PeriodStart:          req.PeriodStart.UTC().Format(time.RFC3339),
		PeriodEnd:            req.PeriodEnd.UTC().Format(time.RFC3339),
	}
	for _, proc := range procs {
		command.ProcessIDs = append(command.ProcessIDs, proc.ID.String())
	}
	if req.MeteringPointType != nil {
		command.MeteringPointType = req.MeteringPointType.String()
	}
	if req.SettlementMethod != nil {
		command.SettlementMethod = req.SettlementMethod.String()
	}
	for _, chargeType := range req.ChargeTypes {
		command.ChargeTypes = append(command.ChargeTypes, chargeType.String())
	}

	data, err := json.Marshal(command)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "marshaling calculation command")
	}

	attributes := map[string]string{
		"request_transaction_id": req.TransactionID,
		"process_type":           req.ProcessType.String(),
	}
	if err := s.publisher.PublishCommand(ctx, data, attributes); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "publishing calculation command")
	}
	return nil
}

func validateEnums(req MarketRequest) error {
	if !req.RequestedByRole.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid requested-by role")
	}
	if req.OnBehalfOfNumber != "" && !req.OnBehalfOfRole.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid on-behalf-of role")
	}
	if !req.ProcessType.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid process type")
	}
	if !req.BusinessReason.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid business reason")
	}
	if !req.Format.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid document format")
	}
	if req.MeteringPointType != nil && !req.MeteringPointType.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid metering point type")
	}
	if req.SettlementMethod != nil && !req.SettlementMethod.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid settlement method")
	}
	for _, chargeType := range req.ChargeTypes {
		if !chargeType.IsValid() {
			return apperrors.New(apperrors.CodeValidation, "invalid charge type")
		}
	}
	return nil
}

package splitter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltbridge/markethub/internal/document"
	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
	apperrors "github.com/voltbridge/markethub/pkg/errors"
)

// Series is one calculated time series from an accepted result, as delivered
// by the calculation engine.
type Series struct {
	GridArea           string
	MeteringPointType  *enums.MeteringPointType
	SettlementMethod   *enums.SettlementMethod
	ChargeType         *enums.ChargeType
	ChargeOwnerNumber  *string
	Resolution         enums.Resolution
	PeriodStart        time.Time
	PeriodEnd          time.Time
	Currency           *enums.Currency
	MeasurementUnit    *enums.MeasurementUnit
	CalculationVersion int64
	Points             []document.Point
}

// Splitter turns one calculation result into render-ready records. It holds
// no state beyond the transaction id mint, which tests override.
type Splitter struct {
	newTransactionID func() string
}

// New builds a splitter.
func New() *Splitter {
	return &Splitter{newTransactionID: uuid.NewString}
}

// DocumentTypeFor maps a process category and outcome to the outgoing message
// type carrying it.
func DocumentTypeFor(processType enums.ProcessType, rejected bool) (enums.DocumentType, error) {
	switch processType {
	case enums.ProcessTypeRequestEnergyResults:
		if rejected {
			return enums.DocumentTypeRejectRequestAggregatedMeasureData, nil
		}
		return enums.DocumentTypeNotifyAggregatedMeasureData, nil
	case enums.ProcessTypeRequestWholesaleResults:
		if rejected {
			return enums.DocumentTypeRejectRequestWholesaleSettlement, nil
		}
		return enums.DocumentTypeNotifyWholesaleServices, nil
	case enums.ProcessTypeSubmitMeteredData:
		if rejected {
			return "", fmt.Errorf("metered data submissions are not rejected through this pipeline")
		}
		return enums.DocumentTypeNotifyValidatedMeasureData, nil
	default:
		return "", fmt.Errorf("unknown process type %q", processType)
	}
}

// SplitRejected consolidates a rejection into a single record for the whole
// request, no matter how many grid-area processes it spawned. The record's
// transaction id is the first sub-process id so the recipient can correlate.
func (s *Splitter) SplitRejected(procs []models.Process, reasonCode, reasonText string) (document.MarketActivityRecord, error) {
	if len(procs) == 0 {
		return document.MarketActivityRecord{}, apperrors.New(apperrors.CodeCorrelationMismatch, "rejection resolved no processes")
	}
	if reasonCode == "" {
		return document.MarketActivityRecord{}, apperrors.New(apperrors.CodeValidation, "rejection carries no reason code")
	}

	record := document.MarketActivityRecord{
		TransactionID:         procs[0].ID.String(),
		OriginalTransactionID: procs[0].RequestTransactionID,
		RejectReasonCode:      &reasonCode,
	}
	if reasonText != "" {
		text := reasonText
		record.RejectReasonText = &text
	}
	return record, nil
}

// SplitAccepted groups an accepted result's series into records addressed to
// the effective requester recorded on the process. Energy results group by
// grid area, wholesale results by grid area and charge type. A monthly
// wholesale result on an unfiltered request additionally yields one total
// record per grid area with the charge type absent.
func (s *Splitter) SplitAccepted(proc *models.Process, series []Series) ([]document.MarketActivityRecord, error) {
	if proc == nil {
		return nil, apperrors.New(apperrors.CodeCorrelationMismatch, "accepted result resolved no process")
	}

	wholesale := proc.ProcessType == enums.ProcessTypeRequestWholesaleResults

	groups, order, err := groupSeries(series, wholesale)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "grouping result series")
	}

	records := make([]document.MarketActivityRecord, 0, len(order))
	for _, key := range order {
		record, err := s.recordFromGroup(proc, groups[key])
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, err, fmt.Sprintf("building record for grid area %s", groups[key][0].GridArea))
		}
		records = append(records, record)
	}

	if wholesale && len(proc.ChargeTypes) == 0 {
		totals, err := s.monthlyTotals(proc, series)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, err, "building monthly totals")
		}
		records = append(records, totals...)
	}

	return records, nil
}

type groupKey struct {
	gridArea   string
	chargeType string
}

func groupSeries(series []Series, byChargeType bool) (map[groupKey][]Series, []groupKey, error) {
	groups := map[groupKey][]Series{}
	var order []groupKey
	for i, item := range series {
		if item.GridArea == "" {
			return nil, nil, fmt.Errorf("series %d has no grid area", i)
		}
		key := groupKey{gridArea: item.GridArea}
		if byChargeType && item.ChargeType != nil {
			key.chargeType = item.ChargeType.String()
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], item)
	}
	return groups, order, nil
}

// recordFromGroup folds one combination's series into a single record. Fields
// are inherited verbatim from the series and must agree across the group;
// points are concatenated in arrival order.
func (s *Splitter) recordFromGroup(proc *models.Process, group []Series) (document.MarketActivityRecord, error) {
	first := group[0]

	start := first.PeriodStart
	end := first.PeriodEnd
	resolution := first.Resolution
	version := first.CalculationVersion

	var points []document.Point
	lastPosition := 0
	for _, item := range group {
		if item.Resolution != resolution {
			return document.MarketActivityRecord{}, fmt.Errorf("series resolutions disagree within one combination (%s vs %s)", resolution, item.Resolution)
		}
		if !equalOptional(item.Currency, first.Currency) || !equalOptional(item.MeasurementUnit, first.MeasurementUnit) {
			return document.MarketActivityRecord{}, fmt.Errorf("series units disagree within one combination")
		}
		if item.PeriodStart.Before(start) {
			start = item.PeriodStart
		}
		if item.PeriodEnd.After(end) {
			end = item.PeriodEnd
		}
		for _, point := range item.Points {
			if point.Position <= lastPosition {
				return document.MarketActivityRecord{}, fmt.Errorf("point positions not strictly increasing across combination (%d after %d)", point.Position, lastPosition)
			}
			lastPosition = point.Position
			points = append(points, point)
		}
	}

	start = start.UTC().Truncate(time.Second)
	end = end.UTC().Truncate(time.Second)

	record := document.MarketActivityRecord{
		TransactionID:         s.newTransactionID(),
		OriginalTransactionID: originalTransactionID(proc),
		GridArea:              first.GridArea,
		MeteringPointType:     first.MeteringPointType,
		SettlementMethod:      first.SettlementMethod,
		ChargeType:            first.ChargeType,
		ChargeOwnerNumber:     first.ChargeOwnerNumber,
		Resolution:            &resolution,
		PeriodStart:           &start,
		PeriodEnd:             &end,
		Currency:              first.Currency,
		MeasurementUnit:       first.MeasurementUnit,
		CalculationVersion:    &version,
		Points:                points,
	}
	return record, nil
}

// monthlyTotals synthesizes the per-grid-area total amount across charge
// types for monthly wholesale results. The charge type stays absent on these
// records so recipients can tell them from per-charge series.
func (s *Splitter) monthlyTotals(proc *models.Process, series []Series) ([]document.MarketActivityRecord, error) {
	type totalState struct {
		sum     decimal.Decimal
		first   Series
		start   time.Time
		end     time.Time
		hasArea bool
	}
	totals := map[string]*totalState{}
	var order []string

	for _, item := range series {
		if item.Resolution != enums.ResolutionMonthly {
			continue
		}
		state, ok := totals[item.GridArea]
		if !ok {
			state = &totalState{first: item, start: item.PeriodStart, end: item.PeriodEnd}
			totals[item.GridArea] = state
			order = append(order, item.GridArea)
		}
		if !equalOptional(item.Currency, state.first.Currency) {
			return nil, fmt.Errorf("monthly series currencies disagree for grid area %s", item.GridArea)
		}
		if item.PeriodStart.Before(state.start) {
			state.start = item.PeriodStart
		}
		if item.PeriodEnd.After(state.end) {
			state.end = item.PeriodEnd
		}
		for _, point := range item.Points {
			if point.Quantity != nil {
				state.sum = state.sum.Add(*point.Quantity)
				state.hasArea = true
			}
		}
	}

	var records []document.MarketActivityRecord
	for _, area := range order {
		state := totals[area]
		if !state.hasArea {
			continue
		}
		resolution := enums.ResolutionMonthly
		version := state.first.CalculationVersion
		quality := enums.QualityCalculated
		total := state.sum
		start := state.start.UTC().Truncate(time.Second)
		end := state.end.UTC().Truncate(time.Second)

		records = append(records, document.MarketActivityRecord{
			TransactionID:         s.newTransactionID(),
			OriginalTransactionID: originalTransactionID(proc),
			GridArea:              area,
			Resolution:            &resolution,
			PeriodStart:           &start,
			PeriodEnd:             &end,
			Currency:              state.first.Currency,
			MeasurementUnit:       state.first.MeasurementUnit,
			CalculationVersion:    &version,
			Points: []document.Point{
				{Position: 1, Quantity: &total, Quality: &quality},
			},
		})
	}
	return records, nil
}

func originalTransactionID(proc *models.Process) string {
	if proc.SeriesTransactionID != "" {
		return proc.SeriesTransactionID
	}
	return proc.RequestTransactionID
}

func equalOptional[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

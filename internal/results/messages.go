package results

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltbridge/markethub/internal/document"
	"github.com/voltbridge/markethub/internal/splitter"
	"github.com/voltbridge/markethub/pkg/enums"
)

const (
	statusAccepted = "accepted"
	statusRejected = "rejected"
)

// resultMessage is the calculation engine's response envelope as published
// on the result subscription.
type resultMessage struct {
	ResultID             string          `json:"result_id"`
	Status               string          `json:"status"`
	ProcessID            string          `json:"process_id,omitempty"`
	RequestTransactionID string          `json:"request_transaction_id,omitempty"`
	ReasonCode           string          `json:"reason_code,omitempty"`
	ReasonMessage        string          `json:"reason_message,omitempty"`
	Series               []seriesMessage `json:"series,omitempty"`
}

type seriesMessage struct {
	GridArea           string         `json:"grid_area"`
	MeteringPointType  string         `json:"metering_point_type,omitempty"`
	SettlementMethod   string         `json:"settlement_method,omitempty"`
	ChargeType         string         `json:"charge_type,omitempty"`
	ChargeOwnerNumber  string         `json:"charge_owner_number,omitempty"`
	Resolution         string         `json:"resolution"`
	PeriodStart        time.Time      `json:"period_start"`
	PeriodEnd          time.Time      `json:"period_end"`
	Currency           string         `json:"currency,omitempty"`
	MeasurementUnit    string         `json:"measurement_unit,omitempty"`
	CalculationVersion int64          `json:"calculation_version"`
	Points             []pointMessage `json:"points,omitempty"`
}

type pointMessage struct {
	Position int    `json:"position"`
	Quantity string `json:"quantity,omitempty"`
	Quality  string `json:"quality,omitempty"`
}

func (m resultMessage) validate() error {
	if strings.TrimSpace(m.ResultID) == "" {
		return fmt.Errorf("result id is required")
	}
	switch m.Status {
	case statusAccepted:
		if _, err := uuid.Parse(m.ProcessID); err != nil {
			return fmt.Errorf("accepted result carries no valid process id: %w", err)
		}
	case statusRejected:
		if strings.TrimSpace(m.RequestTransactionID) == "" {
			return fmt.Errorf("rejected result carries no request transaction id")
		}
		if strings.TrimSpace(m.ReasonCode) == "" {
			return fmt.Errorf("rejected result carries no reason code")
		}
	default:
		return fmt.Errorf("unknown result status %q", m.Status)
	}
	return nil
}

func (m seriesMessage) toSeries() (splitter.Series, error) {
	if m.GridArea == "" {
		return splitter.Series{}, fmt.Errorf("series has no grid area")
	}
	resolution, err := enums.ParseResolution(m.Resolution)
	if err != nil {
		return splitter.Series{}, err
	}

	series := splitter.Series{
		GridArea:           m.GridArea,
		Resolution:         resolution,
		PeriodStart:        m.PeriodStart,
		PeriodEnd:          m.PeriodEnd,
		CalculationVersion: m.CalculationVersion,
	}

	if m.MeteringPointType != "" {
		mpType, err := enums.ParseMeteringPointType(m.MeteringPointType)
		if err != nil {
			return splitter.Series{}, err
		}
		series.MeteringPointType = &mpType
	}
	if m.SettlementMethod != "" {
		method, err := enums.ParseSettlementMethod(m.SettlementMethod)
		if err != nil {
			return splitter.Series{}, err
		}
		series.SettlementMethod = &method
	}
	if m.ChargeType != "" {
		chargeType, err := enums.ParseChargeType(m.ChargeType)
		if err != nil {
			return splitter.Series{}, err
		}
		series.ChargeType = &chargeType
	}
	if m.ChargeOwnerNumber != "" {
		owner := m.ChargeOwnerNumber
		series.ChargeOwnerNumber = &owner
	}
	if m.Currency != "" {
		currency, err := enums.ParseCurrency(m.Currency)
		if err != nil {
			return splitter.Series{}, err
		}
		series.Currency = &currency
	}
	if m.MeasurementUnit != "" {
		unit, err := enums.ParseMeasurementUnit(m.MeasurementUnit)
		if err != nil {
			return splitter.Series{}, err
		}
		series.MeasurementUnit = &unit
	}

	for _, p := range m.Points {
		point := document.Point{Position: p.Position}
		if p.Quantity != "" {
			quantity, err := decimal.NewFromString(p.Quantity)
			if err != nil {
				return splitter.Series{}, fmt.Errorf("parsing quantity %q: %w", p.Quantity, err)
			}
			point.Quantity = &quantity
		}
		if p.Quality != "" {
			quality, err := enums.ParseQuality(p.Quality)
			if err != nil {
				return splitter.Series{}, err
			}
			point.Quality = &quality
		}
		series.Points = append(series.Points, point)
	}

	return series, nil
}

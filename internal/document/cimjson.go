package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/markethub/pkg/enums"
)

type jsonCoded struct {
	CodingScheme string `json:"codingScheme"`
	Value        string `json:"value"`
}

type jsonTimeInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type jsonPoint struct {
	Position int    `json:"position"`
	Quantity string `json:"quantity,omitempty"`
	Quality  string `json:"quality,omitempty"`
}

type jsonPeriod struct {
	Resolution   string           `json:"resolution,omitempty"`
	TimeInterval jsonTimeInterval `json:"timeInterval"`
	Points       []jsonPoint      `json:"Point,omitempty"`
}

type jsonReason struct {
	Code string `json:"code"`
	Text string `json:"text,omitempty"`
}

type jsonSeries struct {
	MRID                  string      `json:"mRID"`
	OriginalTransactionID string      `json:"originalTransactionIDReference_Series.mRID,omitempty"`
	GridArea              *jsonCoded  `json:"meteringGridArea_Domain.mRID,omitempty"`
	MeteringPointType     string      `json:"marketEvaluationPoint.type,omitempty"`
	SettlementMethod      string      `json:"marketEvaluationPoint.settlementMethod,omitempty"`
	ChargeType            string      `json:"chargeType.type,omitempty"`
	ChargeOwner           string      `json:"chargeTypeOwner_MarketParticipant.mRID,omitempty"`
	Currency              string      `json:"currency_Unit.name,omitempty"`
	MeasurementUnit       string      `json:"quantity_Measure_Unit.name,omitempty"`
	CalculationVersion    string      `json:"version,omitempty"`
	Reason                *jsonReason `json:"Reason,omitempty"`
	Period                *jsonPeriod `json:"Period,omitempty"`
}

type jsonMarketDocument struct {
	MRID           string       `json:"mRID"`
	Type           string       `json:"type"`
	ProcessType    string       `json:"process.processType"`
	SenderNumber   jsonCoded    `json:"sender_MarketParticipant.mRID"`
	SenderRole     string       `json:"sender_MarketParticipant.marketRole.type"`
	ReceiverNumber jsonCoded    `json:"receiver_MarketParticipant.mRID"`
	ReceiverRole   string       `json:"receiver_MarketParticipant.marketRole.type"`
	CreatedAt      string       `json:"createdDateTime"`
	Series         []jsonSeries `json:"Series,omitempty"`
}

// CIMJSONCodec renders the structured JSON wire format. The envelope key is
// the message-type name, mirroring the XML document element.
type CIMJSONCodec struct{}

// NewCIMJSONCodec returns the JSON codec.
func NewCIMJSONCodec() *CIMJSONCodec {
	return &CIMJSONCodec{}
}

// Format implements Codec.
func (c *CIMJSONCodec) Format() enums.DocumentFormat {
	return enums.DocumentFormatCIMJSON
}

// Marshal implements Codec.
func (c *CIMJSONCodec) Marshal(header Header, records []MarketActivityRecord) ([]byte, error) {
	rootName, ok := rootNameByDocumentType[header.DocumentType]
	if !ok {
		return nil, fmt.Errorf("unknown document type %q", header.DocumentType)
	}

	doc := jsonMarketDocument{
		MRID:           header.MessageID,
		Type:           header.DocumentType.Code(),
		ProcessType:    header.BusinessReason.Code(),
		SenderNumber:   jsonCoded{CodingScheme: partyCodingScheme, Value: header.SenderNumber},
		SenderRole:     header.SenderRole.Code(),
		ReceiverNumber: jsonCoded{CodingScheme: partyCodingScheme, Value: header.ReceiverNumber},
		ReceiverRole:   header.ReceiverRole.Code(),
		CreatedAt:      header.CreatedAt.UTC().Format(timeLayout),
	}

	for _, record := range records {
		series, err := jsonSeriesFromRecord(record)
		if err != nil {
			return nil, err
		}
		doc.Series = append(doc.Series, series)
	}

	envelope := map[string]jsonMarketDocument{rootName: doc}
	return json.MarshalIndent(envelope, "", "  ")
}

func jsonSeriesFromRecord(record MarketActivityRecord) (jsonSeries, error) {
	series := jsonSeries{
		MRID:                  record.TransactionID,
		OriginalTransactionID: record.OriginalTransactionID,
	}
	if record.GridArea != "" {
		series.GridArea = &jsonCoded{CodingScheme: gridAreaCodingScheme, Value: record.GridArea}
	}
	if record.MeteringPointType != nil {
		series.MeteringPointType = record.MeteringPointType.Code()
	}
	if record.SettlementMethod != nil {
		series.SettlementMethod = record.SettlementMethod.Code()
	}
	if record.ChargeType != nil {
		series.ChargeType = record.ChargeType.Code()
	}
	if record.ChargeOwnerNumber != nil {
		series.ChargeOwner = *record.ChargeOwnerNumber
	}
	if record.Currency != nil {
		series.Currency = record.Currency.String()
	}
	if record.MeasurementUnit != nil {
		series.MeasurementUnit = record.MeasurementUnit.String()
	}
	if record.CalculationVersion != nil {
		series.CalculationVersion = strconv.FormatInt(*record.CalculationVersion, 10)
	}
	if record.RejectReasonCode != nil {
		series.Reason = &jsonReason{Code: *record.RejectReasonCode}
		if record.RejectReasonText != nil {
			series.Reason.Text = *record.RejectReasonText
		}
	}

	if record.PeriodStart != nil || record.PeriodEnd != nil || record.Resolution != nil || len(record.Points) > 0 {
		if record.PeriodStart == nil || record.PeriodEnd == nil {
			return jsonSeries{}, fmt.Errorf("series %s has points or resolution without a period", record.TransactionID)
		}
		period := &jsonPeriod{
			TimeInterval: jsonTimeInterval{
				Start: record.PeriodStart.UTC().Format(timeLayout),
				End:   record.PeriodEnd.UTC().Format(timeLayout),
			},
		}
		if record.Resolution != nil {
			period.Resolution = record.Resolution.String()
		}
		for _, point := range record.Points {
			jp := jsonPoint{Position: point.Position}
			if point.Quantity != nil {
				jp.Quantity = point.Quantity.String()
			}
			if point.Quality != nil {
				jp.Quality = point.Quality.String()
			}
			period.Points = append(period.Points, jp)
		}
		series.Period = period
	}

	return series, nil
}

// Unmarshal implements Codec.
func (c *CIMJSONCodec) Unmarshal(data []byte) (*Header, []MarketActivityRecord, error) {
	var envelope map[string]jsonMarketDocument
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling json document: %w", err)
	}
	if len(envelope) != 1 {
		return nil, nil, fmt.Errorf("expected exactly one document envelope, got %d", len(envelope))
	}

	var rootName string
	var doc jsonMarketDocument
	for name, value := range envelope {
		rootName = name
		doc = value
	}

	docType, ok := documentTypeByRootName[rootName]
	if !ok {
		return nil, nil, fmt.Errorf("unknown document root %q", rootName)
	}
	if code := docType.Code(); doc.Type != code {
		return nil, nil, fmt.Errorf("document type code %q does not match root %q", doc.Type, rootName)
	}

	header, err := headerFromWire(wireHeader{
		MessageID:      doc.MRID,
		DocumentType:   docType,
		BusinessReason: doc.ProcessType,
		SenderNumber:   doc.SenderNumber.Value,
		SenderRole:     doc.SenderRole,
		ReceiverNumber: doc.ReceiverNumber.Value,
		ReceiverRole:   doc.ReceiverRole,
		CreatedAt:      doc.CreatedAt,
	})
	if err != nil {
		return nil, nil, err
	}

	var records []MarketActivityRecord
	for _, series := range doc.Series {
		record, err := recordFromJSONSeries(series)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}

	return header, records, nil
}

func recordFromJSONSeries(series jsonSeries) (MarketActivityRecord, error) {
	record := MarketActivityRecord{
		TransactionID:         series.MRID,
		OriginalTransactionID: series.OriginalTransactionID,
	}
	if series.GridArea != nil {
		record.GridArea = series.GridArea.Value
	}

	var err error
	if record.MeteringPointType, err = parseMeteringPointTypeCode(series.MeteringPointType); err != nil {
		return record, err
	}
	if record.SettlementMethod, err = parseSettlementMethodCode(series.SettlementMethod); err != nil {
		return record, err
	}
	if record.ChargeType, err = parseChargeTypeCode(series.ChargeType); err != nil {
		return record, err
	}
	if series.ChargeOwner != "" {
		owner := series.ChargeOwner
		record.ChargeOwnerNumber = &owner
	}
	if record.Currency, err = parseCurrencyValue(series.Currency); err != nil {
		return record, err
	}
	if record.MeasurementUnit, err = parseMeasurementUnitValue(series.MeasurementUnit); err != nil {
		return record, err
	}
	if record.CalculationVersion, err = parseVersionValue(series.CalculationVersion); err != nil {
		return record, err
	}
	if series.Reason != nil {
		code := series.Reason.Code
		record.RejectReasonCode = &code
		if series.Reason.Text != "" {
			text := series.Reason.Text
			record.RejectReasonText = &text
		}
	}

	if series.Period != nil {
		start, err := time.Parse(timeLayout, series.Period.TimeInterval.Start)
		if err != nil {
			return record, fmt.Errorf("parsing period start: %w", err)
		}
		end, err := time.Parse(timeLayout, series.Period.TimeInterval.End)
		if err != nil {
			return record, fmt.Errorf("parsing period end: %w", err)
		}
		record.PeriodStart = &start
		record.PeriodEnd = &end

		if series.Period.Resolution != "" {
			resolution, err := enums.ParseResolution(series.Period.Resolution)
			if err != nil {
				return record, err
			}
			record.Resolution = &resolution
		}

		for _, jp := range series.Period.Points {
			point := Point{Position: jp.Position}
			if jp.Quantity != "" {
				quantity, err := decimal.NewFromString(jp.Quantity)
				if err != nil {
					return record, fmt.Errorf("parsing quantity %q: %w", jp.Quantity, err)
				}
				point.Quantity = &quantity
			}
			if jp.Quality != "" {
				quality, err := enums.ParseQuality(jp.Quality)
				if err != nil {
					return record, err
				}
				point.Quality = &quality
			}
			record.Points = append(record.Points, point)
		}
	}

	return record, nil
}

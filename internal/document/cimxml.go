package document

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/markethub/pkg/enums"
)

const (
	cimNamespace = "urn:voltbridge:markethub:marketdocument:1"

	// Party numbers are GLN-coded, grid areas use the Danish national list.
	partyCodingScheme    = "A10"
	gridAreaCodingScheme = "NDK"
)

var rootNameByDocumentType = map[enums.DocumentType]string{
	enums.DocumentTypeNotifyAggregatedMeasureData:        "NotifyAggregatedMeasureData_MarketDocument",
	enums.DocumentTypeNotifyWholesaleServices:            "NotifyWholesaleServices_MarketDocument",
	enums.DocumentTypeNotifyValidatedMeasureData:         "NotifyValidatedMeasureData_MarketDocument",
	enums.DocumentTypeRejectRequestAggregatedMeasureData: "RejectRequestAggregatedMeasureData_MarketDocument",
	enums.DocumentTypeRejectRequestWholesaleSettlement:   "RejectRequestWholesaleSettlement_MarketDocument",
}

var documentTypeByRootName = func() map[string]enums.DocumentType {
	out := make(map[string]enums.DocumentType, len(rootNameByDocumentType))
	for docType, name := range rootNameByDocumentType {
		out[name] = docType
	}
	return out
}()

type xmlCoded struct {
	CodingScheme string `xml:"codingScheme,attr"`
	Value        string `xml:",chardata"`
}

type xmlTimeInterval struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type xmlPoint struct {
	Position int    `xml:"position"`
	Quantity string `xml:"quantity,omitempty"`
	Quality  string `xml:"quality,omitempty"`
}

type xmlPeriod struct {
	Resolution   string          `xml:"resolution,omitempty"`
	TimeInterval xmlTimeInterval `xml:"timeInterval"`
	Points       []xmlPoint      `xml:"Point"`
}

type xmlReason struct {
	Code string `xml:"code"`
	Text string `xml:"text,omitempty"`
}

type xmlSeries struct {
	MRID                  string     `xml:"mRID"`
	OriginalTransactionID string     `xml:"originalTransactionIDReference_Series.mRID,omitempty"`
	GridArea              *xmlCoded  `xml:"meteringGridArea_Domain.mRID"`
	MeteringPointType     string     `xml:"marketEvaluationPoint.type,omitempty"`
	SettlementMethod      string     `xml:"marketEvaluationPoint.settlementMethod,omitempty"`
	ChargeType            string     `xml:"chargeType.type,omitempty"`
	ChargeOwner           string     `xml:"chargeTypeOwner_MarketParticipant.mRID,omitempty"`
	Currency              string     `xml:"currency_Unit.name,omitempty"`
	MeasurementUnit       string     `xml:"quantity_Measure_Unit.name,omitempty"`
	CalculationVersion    string     `xml:"version,omitempty"`
	Reason                *xmlReason `xml:"Reason"`
	Period                *xmlPeriod `xml:"Period"`
}

type xmlMarketDocument struct {
	XMLName        xml.Name
	MRID           string      `xml:"mRID"`
	Type           string      `xml:"type"`
	ProcessType    string      `xml:"process.processType"`
	SenderNumber   xmlCoded    `xml:"sender_MarketParticipant.mRID"`
	SenderRole     string      `xml:"sender_MarketParticipant.marketRole.type"`
	ReceiverNumber xmlCoded    `xml:"receiver_MarketParticipant.mRID"`
	ReceiverRole   string      `xml:"receiver_MarketParticipant.marketRole.type"`
	CreatedAt      string      `xml:"createdDateTime"`
	Series         []xmlSeries `xml:"Series"`
}

// CIMXMLCodec renders the structured XML wire format.
type CIMXMLCodec struct{}

// NewCIMXMLCodec returns the XML codec.
func NewCIMXMLCodec() *CIMXMLCodec {
	return &CIMXMLCodec{}
}

// Format implements Codec.
func (c *CIMXMLCodec) Format() enums.DocumentFormat {
	return enums.DocumentFormatCIMXML
}

// Marshal implements Codec.
func (c *CIMXMLCodec) Marshal(header Header, records []MarketActivityRecord) ([]byte, error) {
	rootName, ok := rootNameByDocumentType[header.DocumentType]
	if !ok {
		return nil, fmt.Errorf("unknown document type %q", header.DocumentType)
	}

	doc := xmlMarketDocument{
		XMLName:        xml.Name{Space: cimNamespace, Local: rootName},
		MRID:           header.MessageID,
		Type:           header.DocumentType.Code(),
		ProcessType:    header.BusinessReason.Code(),
		SenderNumber:   xmlCoded{CodingScheme: partyCodingScheme, Value: header.SenderNumber},
		SenderRole:     header.SenderRole.Code(),
		ReceiverNumber: xmlCoded{CodingScheme: partyCodingScheme, Value: header.ReceiverNumber},
		ReceiverRole:   header.ReceiverRole.Code(),
		CreatedAt:      header.CreatedAt.UTC().Format(timeLayout),
	}

	for _, record := range records {
		series, err := xmlSeriesFromRecord(record)
		if err != nil {
			return nil, err
		}
		doc.Series = append(doc.Series, series)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling xml document: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

func xmlSeriesFromRecord(record MarketActivityRecord) (xmlSeries, error) {
	series := xmlSeries{
		MRID:                  record.TransactionID,
		OriginalTransactionID: record.OriginalTransactionID,
	}
	if record.GridArea != "" {
		series.GridArea = &xmlCoded{CodingScheme: gridAreaCodingScheme, Value: record.GridArea}
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
		series.Reason = &xmlReason{Code: *record.RejectReasonCode}
		if record.RejectReasonText != nil {
			series.Reason.Text = *record.RejectReasonText
		}
	}

	if record.PeriodStart != nil || record.PeriodEnd != nil || record.Resolution != nil || len(record.Points) > 0 {
		if record.PeriodStart == nil || record.PeriodEnd == nil {
			return xmlSeries{}, fmt.Errorf("series %s has points or resolution without a period", record.TransactionID)
		}
		period := &xmlPeriod{
			TimeInterval: xmlTimeInterval{
				Start: record.PeriodStart.UTC().Format(timeLayout),
				End:   record.PeriodEnd.UTC().Format(timeLayout),
			},
		}
		if record.Resolution != nil {
			period.Resolution = record.Resolution.String()
		}
		for _, point := range record.Points {
			xp := xmlPoint{Position: point.Position}
			if point.Quantity != nil {
				xp.Quantity = point.Quantity.String()
			}
			if point.Quality != nil {
				xp.Quality = point.Quality.String()
			}
			period.Points = append(period.Points, xp)
		}
		series.Period = period
	}

	return series, nil
}

// Unmarshal implements Codec.
func (c *CIMXMLCodec) Unmarshal(data []byte) (*Header, []MarketActivityRecord, error) {
	var doc xmlMarketDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling xml document: %w", err)
	}

	docType, ok := documentTypeByRootName[doc.XMLName.Local]
	if !ok {
		return nil, nil, fmt.Errorf("unknown document root %q", doc.XMLName.Local)
	}
	if code := docType.Code(); doc.Type != code {
		return nil, nil, fmt.Errorf("document type code %q does not match root %q", doc.Type, doc.XMLName.Local)
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
		record, err := recordFromXMLSeries(series)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}

	return header, records, nil
}

func recordFromXMLSeries(series xmlSeries) (MarketActivityRecord, error) {
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
		record.ChargeOwnerNumber = &series.ChargeOwner
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
		record.RejectReasonCode = &series.Reason.Code
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

		for _, xp := range series.Period.Points {
			point := Point{Position: xp.Position}
			if xp.Quantity != "" {
				quantity, err := decimal.NewFromString(xp.Quantity)
				if err != nil {
					return record, fmt.Errorf("parsing quantity %q: %w", xp.Quantity, err)
				}
				point.Quantity = &quantity
			}
			if xp.Quality != "" {
				quality, err := enums.ParseQuality(xp.Quality)
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

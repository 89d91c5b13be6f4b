package document

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/markethub/pkg/enums"
)

func sampleHeader(docType enums.DocumentType) Header {
	return Header{
		MessageID:      "msg-0001",
		DocumentType:   docType,
		BusinessReason: enums.BusinessReasonBalanceFixing,
		SenderNumber:   "5790001330552",
		SenderRole:     enums.ActorRoleMeteredDataAdministrator,
		ReceiverNumber: "5790000000005",
		ReceiverRole:   enums.ActorRoleEnergySupplier,
		CreatedAt:      time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC),
	}
}

func sampleEnergyRecord() MarketActivityRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	resolution := enums.ResolutionQuarterHourly
	mpType := enums.MeteringPointTypeConsumption
	method := enums.SettlementMethodFlex
	unit := enums.MeasurementUnitKWH
	version := int64(3)
	quantityOne := decimal.RequireFromString("1")
	quantityPrecise := decimal.RequireFromString("10.250")
	measured := enums.QualityMeasured
	estimated := enums.QualityEstimated

	return MarketActivityRecord{
		TransactionID:         "series-1",
		OriginalTransactionID: "txn-req-1",
		GridArea:              "512",
		MeteringPointType:     &mpType,
		SettlementMethod:      &method,
		Resolution:            &resolution,
		PeriodStart:           &start,
		PeriodEnd:             &end,
		MeasurementUnit:       &unit,
		CalculationVersion:    &version,
		Points: []Point{
			{Position: 1, Quantity: &quantityOne, Quality: &measured},
			{Position: 2, Quantity: &quantityPrecise, Quality: &estimated},
			{Position: 3}, // missing quantity and quality stay absent
		},
	}
}

func sampleWholesaleRecord() MarketActivityRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	resolution := enums.ResolutionMonthly
	chargeType := enums.ChargeTypeTariff
	owner := "5790000000099"
	currency := enums.CurrencyDKK
	unit := enums.MeasurementUnitKWH
	amount := decimal.RequireFromString("1234.56")
	calculated := enums.QualityCalculated

	return MarketActivityRecord{
		TransactionID:         "series-2",
		OriginalTransactionID: "txn-req-2",
		GridArea:              "804",
		ChargeType:            &chargeType,
		ChargeOwnerNumber:     &owner,
		Resolution:            &resolution,
		PeriodStart:           &start,
		PeriodEnd:             &end,
		Currency:              &currency,
		MeasurementUnit:       &unit,
		Points: []Point{
			{Position: 1, Quantity: &amount, Quality: &calculated},
		},
	}
}

func sampleRejectRecord() MarketActivityRecord {
	code := "E17"
	text := "Perioden er ugyldig / The requested period is invalid"
	return MarketActivityRecord{
		TransactionID:         "series-3",
		OriginalTransactionID: "txn-req-3",
		RejectReasonCode:      &code,
		RejectReasonText:      &text,
	}
}

func TestRoundTripPerFormat(t *testing.T) {
	registry := NewRegistry()

	cases := []struct {
		name    string
		header  Header
		records []MarketActivityRecord
	}{
		{"energy", sampleHeader(enums.DocumentTypeNotifyAggregatedMeasureData), []MarketActivityRecord{sampleEnergyRecord()}},
		{"wholesale", sampleHeader(enums.DocumentTypeNotifyWholesaleServices), []MarketActivityRecord{sampleWholesaleRecord()}},
		{"reject", sampleHeader(enums.DocumentTypeRejectRequestAggregatedMeasureData), []MarketActivityRecord{sampleRejectRecord()}},
		{"empty submission", sampleHeader(enums.DocumentTypeNotifyValidatedMeasureData), nil},
		{"multi series", sampleHeader(enums.DocumentTypeNotifyAggregatedMeasureData), []MarketActivityRecord{sampleEnergyRecord(), func() MarketActivityRecord {
			r := sampleEnergyRecord()
			r.TransactionID = "series-1b"
			r.GridArea = "804"
			return r
		}()}},
	}

	for _, format := range registry.Formats() {
		codec, err := registry.Codec(format)
		if err != nil {
			t.Fatalf("codec for %s: %v", format, err)
		}
		for _, tc := range cases {
			t.Run(string(format)+"/"+tc.name, func(t *testing.T) {
				data, err := codec.Marshal(tc.header, tc.records)
				if err != nil {
					t.Fatalf("marshal: %v", err)
				}
				header, records, err := codec.Unmarshal(data)
				if err != nil {
					t.Fatalf("unmarshal: %v\n%s", err, data)
				}
				assertHeaderEqual(t, tc.header, *header)
				assertRecordsEqual(t, tc.records, records)
			})
		}
	}
}

func TestFormatEquivalence(t *testing.T) {
	registry := NewRegistry()
	header := sampleHeader(enums.DocumentTypeNotifyWholesaleServices)
	records := []MarketActivityRecord{sampleWholesaleRecord()}

	var reference []MarketActivityRecord
	var referenceHeader *Header

	for _, format := range []enums.DocumentFormat{
		enums.DocumentFormatCIMXML,
		enums.DocumentFormatCIMJSON,
		enums.DocumentFormatEbix,
	} {
		codec, err := registry.Codec(format)
		if err != nil {
			t.Fatalf("codec for %s: %v", format, err)
		}
		data, err := codec.Marshal(header, records)
		if err != nil {
			t.Fatalf("%s marshal: %v", format, err)
		}
		parsedHeader, parsed, err := codec.Unmarshal(data)
		if err != nil {
			t.Fatalf("%s unmarshal: %v", format, err)
		}
		if reference == nil {
			reference = parsed
			referenceHeader = parsedHeader
			continue
		}
		assertHeaderEqual(t, *referenceHeader, *parsedHeader)
		assertRecordsEqual(t, reference, parsed)
	}
}

func TestEbixEscapesReservedCharacters(t *testing.T) {
	codec := NewEbixCodec()
	header := sampleHeader(enums.DocumentTypeRejectRequestWholesaleSettlement)
	code := "D14"
	text := "Pris+mængde mangler: kontakt netvirksomheden? 'straks'"
	records := []MarketActivityRecord{{
		TransactionID:         "series-x",
		OriginalTransactionID: "txn-x",
		RejectReasonCode:      &code,
		RejectReasonText:      &text,
	}}

	data, err := codec.Marshal(header, records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, parsed, err := codec.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, data)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 record, got %d", len(parsed))
	}
	if parsed[0].RejectReasonText == nil || *parsed[0].RejectReasonText != text {
		t.Fatalf("reject text not preserved: %v", parsed[0].RejectReasonText)
	}
}

func TestQuantityPrecisionPreserved(t *testing.T) {
	registry := NewRegistry()
	header := sampleHeader(enums.DocumentTypeNotifyAggregatedMeasureData)
	record := sampleEnergyRecord()

	for _, format := range registry.Formats() {
		codec, _ := registry.Codec(format)
		data, err := codec.Marshal(header, []MarketActivityRecord{record})
		if err != nil {
			t.Fatalf("%s marshal: %v", format, err)
		}
		_, parsed, err := codec.Unmarshal(data)
		if err != nil {
			t.Fatalf("%s unmarshal: %v", format, err)
		}
		got := parsed[0].Points[1].Quantity
		if got == nil || got.String() != "10.250" {
			t.Fatalf("%s: trailing zeros lost, got %v", format, got)
		}
	}
}

func assertHeaderEqual(t *testing.T, expected, actual Header) {
	t.Helper()
	if actual.MessageID != expected.MessageID ||
		actual.DocumentType != expected.DocumentType ||
		actual.BusinessReason != expected.BusinessReason ||
		actual.SenderNumber != expected.SenderNumber ||
		actual.SenderRole != expected.SenderRole ||
		actual.ReceiverNumber != expected.ReceiverNumber ||
		actual.ReceiverRole != expected.ReceiverRole ||
		!actual.CreatedAt.Equal(expected.CreatedAt) {
		t.Fatalf("header mismatch:\nexpected %+v\nactual   %+v", expected, actual)
	}
}

func assertRecordsEqual(t *testing.T, expected, actual []MarketActivityRecord) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("expected %d records, got %d", len(expected), len(actual))
	}
	for i := range expected {
		if !expected[i].Equal(actual[i]) {
			t.Fatalf("record %d mismatch:\nexpected %+v\nactual   %+v", i, expected[i], actual[i])
		}
	}
}

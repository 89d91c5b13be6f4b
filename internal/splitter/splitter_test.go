package splitter

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltbridge/markethub/internal/document"
	dbtypes "github.com/voltbridge/markethub/pkg/db/types"
	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
)

func newTestSplitter() *Splitter {
	counter := 0
	return &Splitter{newTransactionID: func() string {
		counter++
		return fmt.Sprintf("txn-out-%d", counter)
	}}
}

func energyProcess(gridArea string) *models.Process {
	return &models.Process{
		ID:                   uuid.New(),
		RequestTransactionID: "req-1",
		SeriesTransactionID:  "series-req-1",
		RequesterNumber:      "5790000000005",
		RequesterRole:        enums.ActorRoleEnergySupplier,
		GridArea:             gridArea,
		ProcessType:          enums.ProcessTypeRequestEnergyResults,
		BusinessReason:       enums.BusinessReasonBalanceFixing,
		RequestedFormat:      enums.DocumentFormatCIMXML,
		State:                enums.ProcessStateDispatched,
	}
}

func wholesaleProcess(chargeTypes ...enums.ChargeType) *models.Process {
	proc := energyProcess("512")
	proc.ProcessType = enums.ProcessTypeRequestWholesaleResults
	proc.BusinessReason = enums.BusinessReasonWholesaleFixing
	proc.ChargeTypes = dbtypes.ChargeTypes(chargeTypes)
	return proc
}

func quarterHourSeries(gridArea string, quantities ...string) Series {
	mpType := enums.MeteringPointTypeConsumption
	unit := enums.MeasurementUnitKWH
	points := make([]document.Point, 0, len(quantities))
	quality := enums.QualityMeasured
	for i, raw := range quantities {
		quantity := decimal.RequireFromString(raw)
		points = append(points, document.Point{Position: i + 1, Quantity: &quantity, Quality: &quality})
	}
	return Series{
		GridArea:           gridArea,
		MeteringPointType:  &mpType,
		Resolution:         enums.ResolutionQuarterHourly,
		PeriodStart:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:          time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		MeasurementUnit:    &unit,
		CalculationVersion: 7,
		Points:             points,
	}
}

func monthlyWholesaleSeries(gridArea string, chargeType enums.ChargeType, amount string) Series {
	currency := enums.CurrencyDKK
	unit := enums.MeasurementUnitKWH
	owner := "5790000000099"
	quantity := decimal.RequireFromString(amount)
	quality := enums.QualityCalculated
	ct := chargeType
	return Series{
		GridArea:           gridArea,
		ChargeType:         &ct,
		ChargeOwnerNumber:  &owner,
		Resolution:         enums.ResolutionMonthly,
		PeriodStart:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:          time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Currency:           &currency,
		MeasurementUnit:    &unit,
		CalculationVersion: 2,
		Points: []document.Point{
			{Position: 1, Quantity: &quantity, Quality: &quality},
		},
	}
}

func TestSplitAcceptedEnergyGroupsByGridArea(t *testing.T) {
	s := newTestSplitter()
	proc := energyProcess("512")

	records, err := s.SplitAccepted(proc, []Series{
		quarterHourSeries("512", "1.5", "2.25"),
		quarterHourSeries("804", "3"),
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].GridArea != "512" || records[1].GridArea != "804" {
		t.Fatalf("unexpected grid areas: %s, %s", records[0].GridArea, records[1].GridArea)
	}
	if records[0].OriginalTransactionID != "series-req-1" {
		t.Fatalf("expected original transaction from the request series, got %s", records[0].OriginalTransactionID)
	}
	if records[0].ChargeType != nil {
		t.Fatal("energy record must not carry a charge type")
	}
	if len(records[0].Points) != 2 || records[0].Points[1].Quantity.String() != "2.25" {
		t.Fatalf("points not inherited verbatim: %+v", records[0].Points)
	}
	if records[0].CalculationVersion == nil || *records[0].CalculationVersion != 7 {
		t.Fatalf("calculation version not inherited: %v", records[0].CalculationVersion)
	}
}

func TestSplitAcceptedWholesaleGroupsByGridAreaAndChargeType(t *testing.T) {
	s := newTestSplitter()
	proc := wholesaleProcess(enums.ChargeTypeTariff, enums.ChargeTypeFee)

	records, err := s.SplitAccepted(proc, []Series{
		monthlyWholesaleSeries("512", enums.ChargeTypeTariff, "100"),
		monthlyWholesaleSeries("512", enums.ChargeTypeFee, "40"),
		monthlyWholesaleSeries("804", enums.ChargeTypeTariff, "10"),
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	// Three combinations, no total record because the request filtered on
	// charge types.
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for _, record := range records {
		if record.ChargeType == nil {
			t.Fatalf("wholesale per-charge record lost its charge type: %+v", record)
		}
	}
}

func TestSplitAcceptedMonthlyTotalPerGridArea(t *testing.T) {
	s := newTestSplitter()
	proc := wholesaleProcess()

	records, err := s.SplitAccepted(proc, []Series{
		monthlyWholesaleSeries("512", enums.ChargeTypeTariff, "100.50"),
		monthlyWholesaleSeries("512", enums.ChargeTypeFee, "40.25"),
		monthlyWholesaleSeries("804", enums.ChargeTypeTariff, "10"),
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	// Three per-charge combinations plus one total per grid area.
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}

	var totals []document.MarketActivityRecord
	for _, record := range records {
		if record.ChargeType == nil {
			totals = append(totals, record)
		}
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 total records, got %d", len(totals))
	}
	if totals[0].GridArea != "512" || totals[0].Points[0].Quantity.String() != "140.75" {
		t.Fatalf("unexpected first total: area %s amount %v", totals[0].GridArea, totals[0].Points[0].Quantity)
	}
	if totals[1].GridArea != "804" || totals[1].Points[0].Quantity.String() != "10" {
		t.Fatalf("unexpected second total: area %s amount %v", totals[1].GridArea, totals[1].Points[0].Quantity)
	}
	if totals[0].ChargeOwnerNumber != nil {
		t.Fatal("total record must not carry a charge owner")
	}
}

func TestSplitAcceptedQuarterHourlyWholesaleHasNoTotal(t *testing.T) {
	s := newTestSplitter()
	proc := wholesaleProcess()

	series := monthlyWholesaleSeries("512", enums.ChargeTypeTariff, "5")
	series.Resolution = enums.ResolutionQuarterHourly

	records, err := s.SplitAccepted(proc, []Series{series})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected only the per-charge record, got %d", len(records))
	}
}

func TestSplitAcceptedTruncatesPeriodsToSeconds(t *testing.T) {
	s := newTestSplitter()
	proc := energyProcess("512")

	series := quarterHourSeries("512", "1")
	series.PeriodStart = series.PeriodStart.Add(300 * time.Millisecond)

	records, err := s.SplitAccepted(proc, []Series{series})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if records[0].PeriodStart.Nanosecond() != 0 {
		t.Fatalf("period start not truncated: %v", records[0].PeriodStart)
	}
}

func TestSplitAcceptedEmptyResult(t *testing.T) {
	s := newTestSplitter()
	records, err := s.SplitAccepted(energyProcess("512"), nil)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestSplitRejectedConsolidatesToOneRecord(t *testing.T) {
	s := newTestSplitter()
	procs := []models.Process{*energyProcess("512"), *energyProcess("804")}
	procs[1].RequestTransactionID = procs[0].RequestTransactionID

	record, err := s.SplitRejected(procs, "E17", "Perioden er ugyldig / The requested period is invalid")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if record.TransactionID != procs[0].ID.String() {
		t.Fatalf("expected first sub-process id as transaction, got %s", record.TransactionID)
	}
	if record.OriginalTransactionID != procs[0].RequestTransactionID {
		t.Fatalf("expected request transaction as original, got %s", record.OriginalTransactionID)
	}
	if record.RejectReasonCode == nil || *record.RejectReasonCode != "E17" {
		t.Fatalf("reason code not carried: %v", record.RejectReasonCode)
	}
	if !record.IsReject() {
		t.Fatal("expected a reject record")
	}
	if len(record.Points) != 0 || record.GridArea != "" {
		t.Fatal("reject record must carry no series data")
	}
}

func TestSplitRejectedWithoutProcessesFails(t *testing.T) {
	s := newTestSplitter()
	if _, err := s.SplitRejected(nil, "E17", "nope"); err == nil {
		t.Fatal("expected a correlation error")
	}
}

func TestDocumentTypeFor(t *testing.T) {
	cases := []struct {
		processType enums.ProcessType
		rejected    bool
		expected    enums.DocumentType
	}{
		{enums.ProcessTypeRequestEnergyResults, false, enums.DocumentTypeNotifyAggregatedMeasureData},
		{enums.ProcessTypeRequestEnergyResults, true, enums.DocumentTypeRejectRequestAggregatedMeasureData},
		{enums.ProcessTypeRequestWholesaleResults, false, enums.DocumentTypeNotifyWholesaleServices},
		{enums.ProcessTypeRequestWholesaleResults, true, enums.DocumentTypeRejectRequestWholesaleSettlement},
		{enums.ProcessTypeSubmitMeteredData, false, enums.DocumentTypeNotifyValidatedMeasureData},
	}
	for _, tc := range cases {
		docType, err := DocumentTypeFor(tc.processType, tc.rejected)
		if err != nil {
			t.Fatalf("%s rejected=%v: %v", tc.processType, tc.rejected, err)
		}
		if docType != tc.expected {
			t.Fatalf("%s rejected=%v: expected %s, got %s", tc.processType, tc.rejected, tc.expected, docType)
		}
	}
	if _, err := DocumentTypeFor(enums.ProcessTypeSubmitMeteredData, true); err == nil {
		t.Fatal("expected an error for rejected submissions")
	}
}

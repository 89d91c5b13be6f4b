package document

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/markethub/pkg/enums"
)

// Header carries the document-level fields shared by every record in one
// outgoing document. The sender is always the hub's metered data
// administrator identity.
type Header struct {
	MessageID      string
	DocumentType   enums.DocumentType
	BusinessReason enums.BusinessReason
	SenderNumber   string
	SenderRole     enums.ActorRole
	ReceiverNumber string
	ReceiverRole   enums.ActorRole
	CreatedAt      time.Time
}

// Point is one position in a time series. Quantity and Quality are omitted
// from the wire when absent, never rendered as null or zero.
type Point struct {
	Position int
	Quantity *decimal.Decimal
	Quality  *enums.Quality
}

// MarketActivityRecord is one render-ready series: everything a single
// renderer invocation needs, immutable once built by the splitter.
//
// Optional fields that were absent on the originating request stay nil and
// are left out of the rendered document entirely.
type MarketActivityRecord struct {
	TransactionID         string
	OriginalTransactionID string
	GridArea              string
	MeteringPointType     *enums.MeteringPointType
	SettlementMethod      *enums.SettlementMethod
	ChargeType            *enums.ChargeType
	ChargeOwnerNumber     *string
	Resolution            *enums.Resolution
	PeriodStart           *time.Time
	PeriodEnd             *time.Time
	Currency              *enums.Currency
	MeasurementUnit       *enums.MeasurementUnit
	CalculationVersion    *int64
	RejectReasonCode      *string
	RejectReasonText      *string
	Points                []Point
}

// IsReject reports whether the record carries a rejection rather than data.
func (r MarketActivityRecord) IsReject() bool {
	return r.RejectReasonCode != nil
}

// Equal compares two records field by field. Decimal quantities compare by
// numeric value, timestamps by instant.
func (r MarketActivityRecord) Equal(other MarketActivityRecord) bool {
	if r.TransactionID != other.TransactionID ||
		r.OriginalTransactionID != other.OriginalTransactionID ||
		r.GridArea != other.GridArea {
		return false
	}
	if !equalPtr(r.MeteringPointType, other.MeteringPointType) ||
		!equalPtr(r.SettlementMethod, other.SettlementMethod) ||
		!equalPtr(r.ChargeType, other.ChargeType) ||
		!equalPtr(r.ChargeOwnerNumber, other.ChargeOwnerNumber) ||
		!equalPtr(r.Resolution, other.Resolution) ||
		!equalPtr(r.Currency, other.Currency) ||
		!equalPtr(r.MeasurementUnit, other.MeasurementUnit) ||
		!equalPtr(r.CalculationVersion, other.CalculationVersion) ||
		!equalPtr(r.RejectReasonCode, other.RejectReasonCode) ||
		!equalPtr(r.RejectReasonText, other.RejectReasonText) {
		return false
	}
	if !equalTimePtr(r.PeriodStart, other.PeriodStart) || !equalTimePtr(r.PeriodEnd, other.PeriodEnd) {
		return false
	}
	if len(r.Points) != len(other.Points) {
		return false
	}
	for i := range r.Points {
		if !r.Points[i].Equal(other.Points[i]) {
			return false
		}
	}
	return true
}

// Equal compares two points.
func (p Point) Equal(other Point) bool {
	if p.Position != other.Position {
		return false
	}
	if (p.Quantity == nil) != (other.Quantity == nil) {
		return false
	}
	if p.Quantity != nil && !p.Quantity.Equal(*other.Quantity) {
		return false
	}
	return equalPtr(p.Quality, other.Quality)
}

func equalPtr[T comparable](a, b *T) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

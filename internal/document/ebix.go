package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/markethub/pkg/enums"
)

// ebIX segment syntax: ' terminates a segment, + separates data elements,
// : separates components, ? releases the next character in free text.
const (
	ebixSegmentTerminator = '\''
	ebixElementSeparator  = '+'
	ebixComponentMark     = ':'
	ebixReleaseChar       = '?'

	// Code-list agency qualifier for party numbers in the legacy format.
	ebixPartyAgency = "9"
)

// EbixCodec renders the legacy positional/qualifier EDI format.
type EbixCodec struct{}

// NewEbixCodec returns the ebIX codec.
func NewEbixCodec() *EbixCodec {
	return &EbixCodec{}
}

// Format implements Codec.
func (c *EbixCodec) Format() enums.DocumentFormat {
	return enums.DocumentFormatEbix
}

// Marshal implements Codec.
func (c *EbixCodec) Marshal(header Header, records []MarketActivityRecord) ([]byte, error) {
	if _, ok := rootNameByDocumentType[header.DocumentType]; !ok {
		return nil, fmt.Errorf("unknown document type %q", header.DocumentType)
	}

	var segments []string
	typeCode := header.DocumentType.Code()

	segments = append(segments,
		seg("UNH", esc(header.MessageID), typeCode),
		seg("BGM", typeCode, esc(header.MessageID), header.BusinessReason.Code()),
		seg("DTM", comp("137", header.CreatedAt.UTC().Format(timeLayout), "303")),
		seg("NAD", "MS", comp(header.SenderNumber, "", ebixPartyAgency), header.SenderRole.Code()),
		seg("NAD", "MR", comp(header.ReceiverNumber, "", ebixPartyAgency), header.ReceiverRole.Code()),
	)

	for i, record := range records {
		recordSegments, err := ebixSegmentsFromRecord(i+1, record)
		if err != nil {
			return nil, err
		}
		segments = append(segments, recordSegments...)
	}

	// UNT counts every segment including itself.
	segments = append(segments, seg("UNT", strconv.Itoa(len(segments)+1), esc(header.MessageID)))

	var sb strings.Builder
	for _, segment := range segments {
		sb.WriteString(segment)
		sb.WriteByte(ebixSegmentTerminator)
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

func ebixSegmentsFromRecord(index int, record MarketActivityRecord) ([]string, error) {
	segments := []string{seg("LIN", strconv.Itoa(index), esc(record.TransactionID))}

	if record.OriginalTransactionID != "" {
		segments = append(segments, seg("RFF", comp("TN", record.OriginalTransactionID)))
	}
	if record.GridArea != "" {
		segments = append(segments, seg("LOC", "172", esc(record.GridArea)))
	}
	if record.MeteringPointType != nil {
		segments = append(segments, seg("ATT", "MPT", record.MeteringPointType.Code()))
	}
	if record.SettlementMethod != nil {
		segments = append(segments, seg("ATT", "SM", record.SettlementMethod.Code()))
	}
	if record.ChargeType != nil {
		segments = append(segments, seg("ATT", "CT", record.ChargeType.Code()))
	}
	if record.ChargeOwnerNumber != nil {
		segments = append(segments, seg("NAD", "CO", comp(*record.ChargeOwnerNumber, "", ebixPartyAgency)))
	}
	if record.Currency != nil {
		segments = append(segments, seg("CUX", comp("2", record.Currency.String())))
	}
	if record.MeasurementUnit != nil {
		segments = append(segments, seg("MEA", "AAE", record.MeasurementUnit.String()))
	}
	if record.CalculationVersion != nil {
		segments = append(segments, seg("VER", strconv.FormatInt(*record.CalculationVersion, 10)))
	}
	if record.RejectReasonCode != nil {
		text := ""
		if record.RejectReasonText != nil {
			text = *record.RejectReasonText
		}
		segments = append(segments, seg("RSN", esc(*record.RejectReasonCode), esc(text)))
	}

	if record.PeriodStart != nil || record.PeriodEnd != nil || record.Resolution != nil || len(record.Points) > 0 {
		if record.PeriodStart == nil || record.PeriodEnd == nil {
			return nil, fmt.Errorf("series %s has points or resolution without a period", record.TransactionID)
		}
		resolution := ""
		if record.Resolution != nil {
			resolution = record.Resolution.String()
		}
		segments = append(segments, seg("PER",
			resolution,
			esc(record.PeriodStart.UTC().Format(timeLayout)),
			esc(record.PeriodEnd.UTC().Format(timeLayout)),
		))
		for _, point := range record.Points {
			quantity := ""
			if point.Quantity != nil {
				quantity = point.Quantity.String()
			}
			quality := ""
			if point.Quality != nil {
				quality = point.Quality.String()
			}
			segments = append(segments, seg("PTS", strconv.Itoa(point.Position), esc(quantity), quality))
		}
	}

	return segments, nil
}

// Unmarshal implements Codec.
func (c *EbixCodec) Unmarshal(data []byte) (*Header, []MarketActivityRecord, error) {
	segments := splitSegments(string(data))
	if len(segments) < 6 {
		return nil, nil, fmt.Errorf("interchange too short: %d segments", len(segments))
	}

	var wire wireHeader
	var records []MarketActivityRecord
	var current *MarketActivityRecord
	var segmentCount int

	flush := func() {
		if current != nil {
			records = append(records, *current)
			current = nil
		}
	}

	for _, raw := range segments {
		elements := splitKeepingEscapes(raw, ebixElementSeparator)
		tag := elements[0]
		segmentCount++

		switch tag {
		case "UNH":
			wire.MessageID = el(elements, 1)

		case "BGM":
			docType, err := enums.DocumentTypeFromCode(el(elements, 1))
			if err != nil {
				return nil, nil, err
			}
			wire.DocumentType = docType
			if id := el(elements, 2); id != wire.MessageID {
				return nil, nil, fmt.Errorf("BGM message id %q does not match UNH %q", id, wire.MessageID)
			}
			wire.BusinessReason = el(elements, 3)

		case "DTM":
			parts := splitKeepingEscapes(elementAt(elements, 1), ebixComponentMark)
			if el(parts, 0) == "137" {
				wire.CreatedAt = el(parts, 1)
			}

		case "NAD":
			qualifier := el(elements, 1)
			party := el(splitKeepingEscapes(elementAt(elements, 2), ebixComponentMark), 0)
			switch qualifier {
			case "MS":
				wire.SenderNumber = party
				wire.SenderRole = el(elements, 3)
			case "MR":
				wire.ReceiverNumber = party
				wire.ReceiverRole = el(elements, 3)
			case "CO":
				if current == nil {
					return nil, nil, fmt.Errorf("NAD+CO before any LIN segment")
				}
				current.ChargeOwnerNumber = &party
			default:
				return nil, nil, fmt.Errorf("unknown NAD qualifier %q", qualifier)
			}

		case "LIN":
			flush()
			current = &MarketActivityRecord{TransactionID: el(elements, 2)}

		case "RFF":
			if current == nil {
				return nil, nil, fmt.Errorf("RFF before any LIN segment")
			}
			parts := splitKeepingEscapes(elementAt(elements, 1), ebixComponentMark)
			if el(parts, 0) == "TN" {
				current.OriginalTransactionID = el(parts, 1)
			}

		case "LOC":
			if current == nil {
				return nil, nil, fmt.Errorf("LOC before any LIN segment")
			}
			if el(elements, 1) == "172" {
				current.GridArea = el(elements, 2)
			}

		case "ATT":
			if current == nil {
				return nil, nil, fmt.Errorf("ATT before any LIN segment")
			}
			if err := applyEbixAttribute(current, el(elements, 1), el(elements, 2)); err != nil {
				return nil, nil, err
			}

		case "CUX":
			if current == nil {
				return nil, nil, fmt.Errorf("CUX before any LIN segment")
			}
			parts := splitKeepingEscapes(elementAt(elements, 1), ebixComponentMark)
			if el(parts, 0) == "2" {
				currency, err := parseCurrencyValue(el(parts, 1))
				if err != nil {
					return nil, nil, err
				}
				current.Currency = currency
			}

		case "MEA":
			if current == nil {
				return nil, nil, fmt.Errorf("MEA before any LIN segment")
			}
			if el(elements, 1) == "AAE" {
				unit, err := parseMeasurementUnitValue(el(elements, 2))
				if err != nil {
					return nil, nil, err
				}
				current.MeasurementUnit = unit
			}

		case "VER":
			if current == nil {
				return nil, nil, fmt.Errorf("VER before any LIN segment")
			}
			version, err := parseVersionValue(el(elements, 1))
			if err != nil {
				return nil, nil, err
			}
			current.CalculationVersion = version

		case "RSN":
			if current == nil {
				return nil, nil, fmt.Errorf("RSN before any LIN segment")
			}
			code := el(elements, 1)
			current.RejectReasonCode = &code
			if text := el(elements, 2); text != "" {
				current.RejectReasonText = &text
			}

		case "PER":
			if current == nil {
				return nil, nil, fmt.Errorf("PER before any LIN segment")
			}
			if resolution := el(elements, 1); resolution != "" {
				parsed, err := enums.ParseResolution(resolution)
				if err != nil {
					return nil, nil, err
				}
				current.Resolution = &parsed
			}
			start, err := time.Parse(timeLayout, el(elements, 2))
			if err != nil {
				return nil, nil, fmt.Errorf("parsing period start: %w", err)
			}
			end, err := time.Parse(timeLayout, el(elements, 3))
			if err != nil {
				return nil, nil, fmt.Errorf("parsing period end: %w", err)
			}
			current.PeriodStart = &start
			current.PeriodEnd = &end

		case "PTS":
			if current == nil {
				return nil, nil, fmt.Errorf("PTS before any LIN segment")
			}
			position, err := strconv.Atoi(el(elements, 1))
			if err != nil {
				return nil, nil, fmt.Errorf("parsing point position: %w", err)
			}
			point := Point{Position: position}
			if quantity := el(elements, 2); quantity != "" {
				value, err := decimal.NewFromString(quantity)
				if err != nil {
					return nil, nil, fmt.Errorf("parsing quantity %q: %w", quantity, err)
				}
				point.Quantity = &value
			}
			if quality := el(elements, 3); quality != "" {
				value, err := enums.ParseQuality(quality)
				if err != nil {
					return nil, nil, err
				}
				point.Quality = &value
			}
			current.Points = append(current.Points, point)

		case "UNT":
			flush()
			declared, err := strconv.Atoi(el(elements, 1))
			if err != nil {
				return nil, nil, fmt.Errorf("parsing UNT count: %w", err)
			}
			if declared != segmentCount {
				return nil, nil, fmt.Errorf("UNT declares %d segments, found %d", declared, segmentCount)
			}
			if id := el(elements, 2); id != wire.MessageID {
				return nil, nil, fmt.Errorf("UNT message id %q does not match UNH %q", id, wire.MessageID)
			}

		default:
			return nil, nil, fmt.Errorf("unknown segment tag %q", tag)
		}
	}

	header, err := headerFromWire(wire)
	if err != nil {
		return nil, nil, err
	}
	return header, records, nil
}

func applyEbixAttribute(record *MarketActivityRecord, qualifier, code string) error {
	switch qualifier {
	case "MPT":
		value, err := parseMeteringPointTypeCode(code)
		if err != nil {
			return err
		}
		record.MeteringPointType = value
	case "SM":
		value, err := parseSettlementMethodCode(code)
		if err != nil {
			return err
		}
		record.SettlementMethod = value
	case "CT":
		value, err := parseChargeTypeCode(code)
		if err != nil {
			return err
		}
		record.ChargeType = value
	default:
		return fmt.Errorf("unknown attribute qualifier %q", qualifier)
	}
	return nil
}

// seg joins a tag with already-escaped elements. Raw values must pass
// through esc or comp first.
func seg(tag string, elements ...string) string {
	parts := make([]string, 0, len(elements)+1)
	parts = append(parts, tag)
	parts = append(parts, elements...)
	return strings.Join(parts, string(ebixElementSeparator))
}

// comp escapes raw components and joins them with the component mark.
func comp(components ...string) string {
	escaped := make([]string, len(components))
	for i, component := range components {
		escaped[i] = esc(component)
	}
	return strings.Join(escaped, string(ebixComponentMark))
}

// esc prefixes reserved characters with the release character.
func esc(value string) string {
	var sb strings.Builder
	for _, r := range value {
		if isEbixReserved(r) {
			sb.WriteByte(ebixReleaseChar)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isEbixReserved(r rune) bool {
	switch r {
	case rune(ebixSegmentTerminator), rune(ebixElementSeparator), rune(ebixComponentMark), rune(ebixReleaseChar):
		return true
	}
	return false
}

// unesc removes release characters, restoring the raw value.
func unesc(value string) string {
	var sb strings.Builder
	released := false
	for _, r := range value {
		if released {
			sb.WriteRune(r)
			released = false
			continue
		}
		if r == rune(ebixReleaseChar) {
			released = true
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// splitSegments splits an interchange on unescaped segment terminators,
// keeping escape sequences intact for the element-level split.
func splitSegments(data string) []string {
	var segments []string
	var sb strings.Builder
	released := false
	for _, r := range data {
		if released {
			sb.WriteRune(r)
			released = false
			continue
		}
		switch r {
		case rune(ebixReleaseChar):
			sb.WriteRune(r)
			released = true
		case rune(ebixSegmentTerminator):
			segment := strings.TrimSpace(sb.String())
			if segment != "" {
				segments = append(segments, segment)
			}
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	return segments
}

// splitKeepingEscapes splits on an unescaped separator without consuming
// release characters, so nested splits stay positional.
func splitKeepingEscapes(value string, separator byte) []string {
	var parts []string
	var sb strings.Builder
	released := false
	for _, r := range value {
		if released {
			sb.WriteRune(r)
			released = false
			continue
		}
		switch r {
		case rune(ebixReleaseChar):
			sb.WriteRune(r)
			released = true
		case rune(separator):
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	parts = append(parts, sb.String())
	return parts
}

// el reads one element and unescapes it.
func el(elements []string, index int) string {
	return unesc(elementAt(elements, index))
}

func elementAt(elements []string, index int) string {
	if index < 0 || index >= len(elements) {
		return ""
	}
	return elements[index]
}

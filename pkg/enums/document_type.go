package enums

import (
	"fmt"
	"strings"
)

// DocumentType names an outgoing market document message type.
type DocumentType string

const (
	DocumentTypeNotifyAggregatedMeasureData        DocumentType = "notify_aggregated_measure_data"
	DocumentTypeNotifyWholesaleServices            DocumentType = "notify_wholesale_services"
	DocumentTypeNotifyValidatedMeasureData         DocumentType = "notify_validated_measure_data"
	DocumentTypeRejectRequestAggregatedMeasureData DocumentType = "reject_request_aggregated_measure_data"
	DocumentTypeRejectRequestWholesaleSettlement   DocumentType = "reject_request_wholesale_settlement"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeNotifyAggregatedMeasureData,
	DocumentTypeNotifyWholesaleServices,
	DocumentTypeNotifyValidatedMeasureData,
	DocumentTypeRejectRequestAggregatedMeasureData,
	DocumentTypeRejectRequestWholesaleSettlement,
}

var documentTypeCodes = map[DocumentType]string{
	DocumentTypeNotifyAggregatedMeasureData:        "E31",
	DocumentTypeNotifyWholesaleServices:            "E34",
	DocumentTypeNotifyValidatedMeasureData:         "E66",
	DocumentTypeRejectRequestAggregatedMeasureData: "E94",
	DocumentTypeRejectRequestWholesaleSettlement:   "E95",
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsReject reports whether the document carries a rejection.
func (d DocumentType) IsReject() bool {
	return d == DocumentTypeRejectRequestAggregatedMeasureData ||
		d == DocumentTypeRejectRequestWholesaleSettlement
}

// Code returns the document wire code for the type.
func (d DocumentType) Code() string {
	return documentTypeCodes[d]
}

// ParseDocumentType converts raw input into a DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}

// DocumentTypeFromCode resolves a document wire code back to a type.
func DocumentTypeFromCode(code string) (DocumentType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for docType, candidate := range documentTypeCodes {
		if candidate == code {
			return docType, nil
		}
	}
	return "", fmt.Errorf("unknown document type code %q", code)
}

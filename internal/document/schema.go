package document

import (
	"fmt"
	"strings"

	"github.com/voltbridge/markethub/pkg/enums"
)

// schemaRule captures what a message type requires of its records.
type schemaRule struct {
	recordsRequired bool
	requireGridArea bool
	requireCurrency bool
	rejectRecords   bool
}

var schemaByDocumentType = map[enums.DocumentType]schemaRule{
	enums.DocumentTypeNotifyAggregatedMeasureData: {
		recordsRequired: true,
		requireGridArea: true,
	},
	enums.DocumentTypeNotifyWholesaleServices: {
		recordsRequired: true,
		requireGridArea: true,
		requireCurrency: true,
	},
	// A metered-data submission can legitimately be empty; the header-only
	// document is still rendered.
	enums.DocumentTypeNotifyValidatedMeasureData: {},
	enums.DocumentTypeRejectRequestAggregatedMeasureData: {
		recordsRequired: true,
		rejectRecords:   true,
	},
	enums.DocumentTypeRejectRequestWholesaleSettlement: {
		recordsRequired: true,
		rejectRecords:   true,
	},
}

// Validate checks the abstract record set against the message type's schema
// before any bytes are produced.
func Validate(header Header, records []MarketActivityRecord) error {
	if strings.TrimSpace(header.MessageID) == "" {
		return fmt.Errorf("message id is required")
	}
	if strings.TrimSpace(header.SenderNumber) == "" || strings.TrimSpace(header.ReceiverNumber) == "" {
		return fmt.Errorf("sender and receiver numbers are required")
	}
	if header.SenderRole != enums.ActorRoleMeteredDataAdministrator {
		return fmt.Errorf("sender role must be %s, got %s", enums.ActorRoleMeteredDataAdministrator, header.SenderRole)
	}
	if !header.ReceiverRole.IsValid() {
		return fmt.Errorf("invalid receiver role %q", header.ReceiverRole)
	}
	if !header.BusinessReason.IsValid() {
		return fmt.Errorf("invalid business reason %q", header.BusinessReason)
	}
	if header.CreatedAt.IsZero() {
		return fmt.Errorf("creation timestamp is required")
	}

	rule, ok := schemaByDocumentType[header.DocumentType]
	if !ok {
		return fmt.Errorf("unknown document type %q", header.DocumentType)
	}
	if rule.recordsRequired && len(records) == 0 {
		return fmt.Errorf("%s requires at least one record", header.DocumentType)
	}

	for i, record := range records {
		if err := validateRecord(rule, record); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, record.TransactionID, err)
		}
	}
	return nil
}

func validateRecord(rule schemaRule, record MarketActivityRecord) error {
	if strings.TrimSpace(record.TransactionID) == "" {
		return fmt.Errorf("transaction id is required")
	}

	if rule.rejectRecords {
		if record.RejectReasonCode == nil || strings.TrimSpace(*record.RejectReasonCode) == "" {
			return fmt.Errorf("reject records require a reason code")
		}
		if len(record.Points) > 0 || record.PeriodStart != nil || record.Resolution != nil {
			return fmt.Errorf("reject records carry no series data")
		}
		return nil
	}

	if record.RejectReasonCode != nil {
		return fmt.Errorf("data records must not carry a reject reason")
	}
	if rule.requireGridArea && strings.TrimSpace(record.GridArea) == "" {
		return fmt.Errorf("grid area is required")
	}
	if rule.requireCurrency && record.Currency == nil {
		return fmt.Errorf("currency is required")
	}
	if len(record.Points) > 0 {
		if record.PeriodStart == nil || record.PeriodEnd == nil {
			return fmt.Errorf("points require a period")
		}
		if record.Resolution == nil {
			return fmt.Errorf("points require a resolution")
		}
		previous := 0
		for _, point := range record.Points {
			if point.Position <= previous {
				return fmt.Errorf("point positions must be strictly increasing, got %d after %d", point.Position, previous)
			}
			previous = point.Position
		}
	}
	return nil
}

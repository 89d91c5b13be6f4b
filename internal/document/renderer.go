package document

import (
	"errors"
	"fmt"
	"time"

	"github.com/voltbridge/markethub/pkg/enums"
	apperrors "github.com/voltbridge/markethub/pkg/errors"
)

// Renderer turns record sets into schema-valid wire documents. Every output
// is re-read through the same codec and compared against the input, so a
// rendering defect can never hand invalid bytes to the bundler.
type Renderer struct {
	registry *Registry
}

// NewRenderer builds a renderer over the codec registry.
func NewRenderer(registry *Registry) (*Renderer, error) {
	if registry == nil {
		return nil, errors.New("codec registry is required")
	}
	return &Renderer{registry: registry}, nil
}

// Render produces the document bytes for one record set in one format.
// Schema violations are fatal render defects, not retryable failures.
func (r *Renderer) Render(header Header, records []MarketActivityRecord, format enums.DocumentFormat) ([]byte, error) {
	codec, err := r.registry.Codec(format)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "selecting codec")
	}

	if err := Validate(header, records); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSchemaViolation, err, "record set violates document schema")
	}

	data, err := codec.Marshal(header, records)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSchemaViolation, err, "marshaling document")
	}

	parsedHeader, parsedRecords, err := codec.Unmarshal(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSchemaViolation, err, "rendered document does not parse")
	}
	if err := verifyRoundTrip(header, records, parsedHeader, parsedRecords); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSchemaViolation, err, "rendered document drifted from source records")
	}

	return data, nil
}

func verifyRoundTrip(header Header, records []MarketActivityRecord, parsedHeader *Header, parsedRecords []MarketActivityRecord) error {
	if parsedHeader == nil {
		return fmt.Errorf("missing header after parse")
	}
	if parsedHeader.MessageID != header.MessageID ||
		parsedHeader.DocumentType != header.DocumentType ||
		parsedHeader.BusinessReason != header.BusinessReason ||
		parsedHeader.SenderNumber != header.SenderNumber ||
		parsedHeader.SenderRole != header.SenderRole ||
		parsedHeader.ReceiverNumber != header.ReceiverNumber ||
		parsedHeader.ReceiverRole != header.ReceiverRole ||
		!parsedHeader.CreatedAt.Equal(header.CreatedAt.UTC().Truncate(time.Second)) {
		return fmt.Errorf("header mismatch after parse")
	}
	if len(parsedRecords) != len(records) {
		return fmt.Errorf("expected %d records after parse, got %d", len(records), len(parsedRecords))
	}
	for i := range records {
		if !records[i].Equal(parsedRecords[i]) {
			return fmt.Errorf("record %d mismatch after parse", i)
		}
	}
	return nil
}

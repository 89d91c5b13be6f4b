package document

import (
	"fmt"
	"strconv"
	"time"

	"github.com/voltbridge/markethub/pkg/enums"
)

// wireHeader is the stringly-typed header shape all three codecs decode
// into before enum resolution.
type wireHeader struct {
	MessageID      string
	DocumentType   enums.DocumentType
	BusinessReason string
	SenderNumber   string
	SenderRole     string
	ReceiverNumber string
	ReceiverRole   string
	CreatedAt      string
}

func headerFromWire(wire wireHeader) (*Header, error) {
	reason, err := enums.BusinessReasonFromCode(wire.BusinessReason)
	if err != nil {
		return nil, err
	}
	senderRole, err := enums.ActorRoleFromCode(wire.SenderRole)
	if err != nil {
		return nil, fmt.Errorf("sender role: %w", err)
	}
	receiverRole, err := enums.ActorRoleFromCode(wire.ReceiverRole)
	if err != nil {
		return nil, fmt.Errorf("receiver role: %w", err)
	}
	createdAt, err := time.Parse(timeLayout, wire.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created timestamp: %w", err)
	}

	return &Header{
		MessageID:      wire.MessageID,
		DocumentType:   wire.DocumentType,
		BusinessReason: reason,
		SenderNumber:   wire.SenderNumber,
		SenderRole:     senderRole,
		ReceiverNumber: wire.ReceiverNumber,
		ReceiverRole:   receiverRole,
		CreatedAt:      createdAt,
	}, nil
}

func parseMeteringPointTypeCode(code string) (*enums.MeteringPointType, error) {
	if code == "" {
		return nil, nil
	}
	value, err := enums.MeteringPointTypeFromCode(code)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseSettlementMethodCode(code string) (*enums.SettlementMethod, error) {
	if code == "" {
		return nil, nil
	}
	value, err := enums.SettlementMethodFromCode(code)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseChargeTypeCode(code string) (*enums.ChargeType, error) {
	if code == "" {
		return nil, nil
	}
	value, err := enums.ChargeTypeFromCode(code)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseCurrencyValue(value string) (*enums.Currency, error) {
	if value == "" {
		return nil, nil
	}
	currency, err := enums.ParseCurrency(value)
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

func parseMeasurementUnitValue(value string) (*enums.MeasurementUnit, error) {
	if value == "" {
		return nil, nil
	}
	unit, err := enums.ParseMeasurementUnit(value)
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func parseVersionValue(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	version, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing calculation version %q: %w", value, err)
	}
	return &version, nil
}

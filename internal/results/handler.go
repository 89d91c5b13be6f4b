package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voltbridge/markethub/internal/audit"
	"github.com/voltbridge/markethub/internal/bundling"
	"github.com/voltbridge/markethub/internal/document"
	"github.com/voltbridge/markethub/internal/process"
	"github.com/voltbridge/markethub/internal/splitter"
	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
	apperrors "github.com/voltbridge/markethub/pkg/errors"
	"github.com/voltbridge/markethub/pkg/logger"
)

// HandlerParams groups dependencies for the result handler.
type HandlerParams struct {
	Processes    *process.Service
	Splitter     *splitter.Splitter
	Renderer     *document.Renderer
	Bundler      *bundling.Service
	Audit        *audit.Writer
	Logger       *logger.Logger
	SenderNumber string
	Now          func() time.Time
	NewMessageID func() string
}

// Handler drives one calculation result through correlation, splitting,
// rendering and bundling.
type Handler struct {
	processes    *process.Service
	splitter     *splitter.Splitter
	renderer     *document.Renderer
	bundler      *bundling.Service
	audit        *audit.Writer
	logg         *logger.Logger
	senderNumber string
	now          func() time.Time
	newMessageID func() string
}

// NewHandler builds a result handler.
func NewHandler(params HandlerParams) (*Handler, error) {
	if params.Processes == nil {
		return nil, errors.New("process service is required")
	}
	if params.Splitter == nil {
		return nil, errors.New("splitter is required")
	}
	if params.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if params.Bundler == nil {
		return nil, errors.New("bundler is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.SenderNumber == "" {
		return nil, errors.New("sender actor number is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	newMessageID := params.NewMessageID
	if newMessageID == nil {
		newMessageID = uuid.NewString
	}
	return &Handler{
		processes:    params.Processes,
		splitter:     params.Splitter,
		renderer:     params.Renderer,
		bundler:      params.Bundler,
		audit:        params.Audit,
		logg:         params.Logger,
		senderNumber: params.SenderNumber,
		now:          now,
		newMessageID: newMessageID,
	}, nil
}

// Handle processes one result. Errors with a retryable code signal the
// consumer to redeliver; everything else is terminal for the message.
func (h *Handler) Handle(ctx context.Context, msg resultMessage) error {
	if err := msg.validate(); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "invalid result message")
	}

	switch msg.Status {
	case statusAccepted:
		return h.handleAccepted(ctx, msg)
	default:
		return h.handleRejected(ctx, msg)
	}
}

func (h *Handler) handleAccepted(ctx context.Context, msg resultMessage) error {
	processID := uuid.MustParse(msg.ProcessID)
	proc, err := h.processes.CorrelateAccepted(ctx, processID)
	if err != nil {
		return err
	}

	series := make([]splitter.Series, 0, len(msg.Series))
	for i, raw := range msg.Series {
		item, err := raw.toSeries()
		if err != nil {
			return apperrors.Wrap(apperrors.CodeValidation, err, fmt.Sprintf("series %d", i))
		}
		series = append(series, item)
	}

	records, err := h.splitter.SplitAccepted(proc, series)
	if err != nil {
		return err
	}

	docType, err := splitter.DocumentTypeFor(proc.ProcessType, false)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "resolving document type")
	}

	// An empty accepted submission still confirms receipt with a
	// header-only document.
	if len(records) == 0 && proc.ProcessType == enums.ProcessTypeSubmitMeteredData {
		if err := h.renderAndBundle(ctx, proc, docType, nil); err != nil {
			return err
		}
		return h.processes.CompleteAccepted(ctx, processID)
	}

	// Every record is its own document; a render defect drops that record
	// only and the rest of the result still goes out.
	for _, record := range records {
		if err := h.renderAndBundle(ctx, proc, docType, []document.MarketActivityRecord{record}); err != nil {
			if apperrors.As(err) != nil && apperrors.As(err).Code() == apperrors.CodeSchemaViolation {
				h.logg.Error(h.logg.WithField(ctx, "transaction_id", record.TransactionID), "dropping record that failed schema validation", err)
				continue
			}
			return err
		}
	}

	return h.processes.CompleteAccepted(ctx, processID)
}

func (h *Handler) handleRejected(ctx context.Context, msg resultMessage) error {
	procs, err := h.processes.CorrelateRejected(ctx, msg.RequestTransactionID)
	if err != nil {
		return err
	}

	record, err := h.splitter.SplitRejected(procs, msg.ReasonCode, msg.ReasonMessage)
	if err != nil {
		return err
	}

	docType, err := splitter.DocumentTypeFor(procs[0].ProcessType, true)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "resolving document type")
	}

	if err := h.renderAndBundle(ctx, &procs[0], docType, []document.MarketActivityRecord{record}); err != nil {
		return err
	}

	return h.processes.CompleteRejected(ctx, msg.RequestTransactionID, msg.ReasonCode, msg.ReasonMessage)
}

func (h *Handler) renderAndBundle(ctx context.Context, proc *models.Process, docType enums.DocumentType, records []document.MarketActivityRecord) error {
	header := document.Header{
		MessageID:      h.newMessageID(),
		DocumentType:   docType,
		BusinessReason: proc.BusinessReason,
		SenderNumber:   h.senderNumber,
		SenderRole:     enums.ActorRoleMeteredDataAdministrator,
		ReceiverNumber: proc.RequesterNumber,
		ReceiverRole:   proc.RequesterRole,
		CreatedAt:      h.now().UTC().Truncate(time.Second),
	}

	payload, err := h.renderer.Render(header, records, proc.RequestedFormat)
	if err != nil {
		return err
	}

	var gridArea *string
	if len(records) == 1 && records[0].GridArea != "" {
		area := records[0].GridArea
		gridArea = &area
	}

	bundleID, err := h.bundler.Insert(ctx, bundling.Key{
		ReceiverNumber: proc.RequesterNumber,
		ReceiverRole:   proc.RequesterRole,
		DocumentType:   docType,
		Format:         proc.RequestedFormat,
	}, header.MessageID, gridArea, payload)
	if err != nil {
		return err
	}

	h.audit.RecordDocument(ctx, audit.DocumentEvent{
		MessageID:      header.MessageID,
		BundleID:       bundleID,
		ReceiverNumber: proc.RequesterNumber,
		ReceiverRole:   proc.RequesterRole,
		DocumentType:   docType,
		Format:         proc.RequestedFormat,
		BusinessReason: proc.BusinessReason,
		RecordCount:    len(records),
		Rejected:       len(records) > 0 && records[0].IsReject(),
		CreatedAt:      header.CreatedAt,
	})
	return nil
}

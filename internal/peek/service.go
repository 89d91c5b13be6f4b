package peek

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/voltbridge/markethub/pkg/enums"
	apperrors "github.com/voltbridge/markethub/pkg/errors"
)

// Document is one rendered document inside a retrieved bundle, in insertion
// order.
type Document struct {
	MessageID string
	Payload   []byte
}

// RetrievedBundle is one closed bundle handed to the actor. Each is an
// independent unit the caller can stream on its own.
type RetrievedBundle struct {
	BundleID     uuid.UUID
	DocumentType enums.DocumentType
	Format       enums.DocumentFormat
	ClosedAt     time.Time
	Documents    []Document
}

// ServiceParams groups dependencies for the retrieval gateway.
type ServiceParams struct {
	Repo Repository
	Now  func() time.Time
}

// Service serves closed bundles to the actor they are addressed to and marks
// them retrieved, at most once each.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a retrieval gateway.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: params.Repo, now: now}, nil
}

// Peek returns every closed, not yet retrieved bundle for the actor in the
// requested format and claims each one. A bundle lost to a concurrent peek is
// simply skipped; no closed bundle exists means an empty result, not an
// error. Claim failures surface only when no bundle could be claimed at all,
// so a partial outage still delivers what was claimed.
func (s *Service) Peek(ctx context.Context, actorNumber string, role enums.ActorRole, format enums.DocumentFormat) ([]RetrievedBundle, error) {
	if actorNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "actor number is required")
	}
	if !role.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid actor role %q", role))
	}
	if !format.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid document format %q", format))
	}

	bundles, err := s.repo.ListClosedUnretrieved(ctx, actorNumber, role, format)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing closed bundles")
	}

	retrievedAt := s.now().UTC()
	retrieved := make([]RetrievedBundle, 0, len(bundles))
	var claimErrs []error
	for _, bundle := range bundles {
		claimed, err := s.repo.ClaimBundle(ctx, bundle.ID, retrievedAt)
		if err != nil {
			// A bundle already claimed in this loop is marked retrieved, so it
			// must still be delivered; the failing one stays unclaimed.
			claimErrs = append(claimErrs, err)
			continue
		}
		if !claimed {
			continue
		}

		docs := make([]Document, 0, len(bundle.Documents))
		for _, doc := range bundle.Documents {
			docs = append(docs, Document{MessageID: doc.MessageID, Payload: doc.Payload})
		}
		retrieved = append(retrieved, RetrievedBundle{
			BundleID:     bundle.ID,
			DocumentType: bundle.DocumentType,
			Format:       bundle.Format,
			ClosedAt:     *bundle.ClosedAt,
			Documents:    docs,
		})
	}
	if len(retrieved) == 0 && len(claimErrs) > 0 {
		return nil, apperrors.Wrap(apperrors.CodeDependency, multierr.Combine(claimErrs...), "claiming bundles")
	}
	return retrieved, nil
}

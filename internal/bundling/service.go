package bundling

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltbridge/markethub/pkg/db/models"
	apperrors "github.com/voltbridge/markethub/pkg/errors"
)

const lockStripes = 64

// ServiceParams groups dependencies for the bundler service.
type ServiceParams struct {
	Repo   Repository
	Window time.Duration
	Now    func() time.Time
}

// Service accumulates rendered documents into per-key bundles and closes
// them once the bundling window has elapsed since first insert.
type Service struct {
	repo   Repository
	window time.Duration
	now    func() time.Time

	// Inserts racing the sweep on the same key are serialized per stripe so
	// a document in flight cannot land in a bundle mid-close.
	locks [lockStripes]sync.Mutex
}

// NewService builds a bundler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Window <= 0 {
		return nil, errors.New("bundling window must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: params.Repo, window: params.Window, now: now}, nil
}

// Insert appends one rendered document to the key's open bundle. A document
// arriving after the key's bundle closed starts a fresh open bundle.
func (s *Service) Insert(ctx context.Context, key Key, messageID string, gridArea *string, payload []byte) (uuid.UUID, error) {
	if messageID == "" {
		return uuid.Nil, apperrors.New(apperrors.CodeValidation, "message id is required")
	}
	if len(payload) == 0 {
		return uuid.Nil, apperrors.New(apperrors.CodeValidation, "document payload is empty")
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	bundleID, err := s.repo.InsertDocument(ctx, key, &models.BundleDocument{
		MessageID: messageID,
		GridArea:  gridArea,
		Payload:   payload,
	}, s.now().UTC())
	if err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.CodeDependency, err, "inserting bundle document")
	}
	return bundleID, nil
}

// Sweep closes every open bundle whose age has reached the window. It is
// idempotent; re-running it closes nothing new.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	closed, err := s.repo.CloseExpired(ctx, now.Add(-s.window), now)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDependency, err, "closing expired bundles")
	}
	return closed, nil
}

func (s *Service) lockFor(key Key) *sync.Mutex {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%s|%s", key.ReceiverNumber, key.ReceiverRole, key.DocumentType, key.Format)
	return &s.locks[h.Sum32()%lockStripes]
}

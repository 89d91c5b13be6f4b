package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/voltbridge/markethub/api/middleware"
	"github.com/voltbridge/markethub/api/responses"
	"github.com/voltbridge/markethub/internal/peek"
	"github.com/voltbridge/markethub/pkg/enums"
	"github.com/voltbridge/markethub/pkg/logger"
)

// RetrievalService hands closed bundles to the actor they are addressed to.
type RetrievalService interface {
	Peek(ctx context.Context, actorNumber string, role enums.ActorRole, format enums.DocumentFormat) ([]peek.RetrievedBundle, error)
}

type retrievedDocument struct {
	MessageID string `json:"message_id"`
	Payload   string `json:"payload"`
}

type retrievedBundle struct {
	BundleID     string              `json:"bundle_id"`
	DocumentType string              `json:"document_type"`
	Format       string              `json:"format"`
	ClosedAt     time.Time           `json:"closed_at"`
	Documents    []retrievedDocument `json:"documents"`
}

type peekResponse struct {
	Bundles []retrievedBundle `json:"bundles"`
}

// PeekBundles returns every closed bundle waiting for the authenticated
// actor in the requested format and marks them retrieved.
func PeekBundles(retrieval RetrievalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorNumber := middleware.ActorNumberFromContext(r.Context())
		actorRole := middleware.ActorRoleFromContext(r.Context())
		format := enums.DocumentFormat(r.URL.Query().Get("format"))

		bundles, err := retrieval.Peek(r.Context(), actorNumber, actorRole, format)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := peekResponse{Bundles: make([]retrievedBundle, 0, len(bundles))}
		for _, bundle := range bundles {
			out := retrievedBundle{
				BundleID:     bundle.BundleID.String(),
				DocumentType: bundle.DocumentType.String(),
				Format:       bundle.Format.String(),
				ClosedAt:     bundle.ClosedAt,
				Documents:    make([]retrievedDocument, 0, len(bundle.Documents)),
			}
			for _, doc := range bundle.Documents {
				out.Documents = append(out.Documents, retrievedDocument{
					MessageID: doc.MessageID,
					Payload:   string(doc.Payload),
				})
			}
			resp.Bundles = append(resp.Bundles, out)
		}
		responses.WriteSuccess(w, resp)
	}
}

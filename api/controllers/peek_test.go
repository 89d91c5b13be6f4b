package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voltbridge/markethub/api/middleware"
	"github.com/voltbridge/markethub/internal/peek"
	"github.com/voltbridge/markethub/pkg/enums"
	pkgerrors "github.com/voltbridge/markethub/pkg/errors"
	"github.com/voltbridge/markethub/pkg/types"
)

type fakeRetrieval struct {
	gotActor  string
	gotRole   enums.ActorRole
	gotFormat enums.DocumentFormat
	bundles   []peek.RetrievedBundle
	err       error
}

func (f *fakeRetrieval) Peek(_ context.Context, actorNumber string, role enums.ActorRole, format enums.DocumentFormat) ([]peek.RetrievedBundle, error) {
	f.gotActor = actorNumber
	f.gotRole = role
	f.gotFormat = format
	if f.err != nil {
		return nil, f.err
	}
	return f.bundles, nil
}

func peekRequest(format string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/peek?format="+format, nil)
	ctx := middleware.WithActor(req.Context(), "5790000000005", enums.ActorRoleEnergySupplier)
	return req.WithContext(ctx)
}

func TestPeekBundlesReturnsClosedBundles(t *testing.T) {
	bundleID := uuid.New()
	retrieval := &fakeRetrieval{bundles: []peek.RetrievedBundle{{
		BundleID:     bundleID,
		DocumentType: enums.DocumentTypeNotifyAggregatedMeasureData,
		Format:       enums.DocumentFormatCIMXML,
		ClosedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Documents: []peek.Document{
			{MessageID: "msg-1", Payload: []byte("<doc/>")},
		},
	}}}

	rec := httptest.NewRecorder()
	PeekBundles(retrieval, nil)(rec, peekRequest("cim_xml"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if retrieval.gotActor != "5790000000005" || retrieval.gotRole != enums.ActorRoleEnergySupplier {
		t.Fatalf("actor not taken from token: %s/%s", retrieval.gotActor, retrieval.gotRole)
	}
	if retrieval.gotFormat != enums.DocumentFormatCIMXML {
		t.Fatalf("format not taken from query, got %q", retrieval.gotFormat)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data := envelope.Data.(map[string]any)
	bundles := data["bundles"].([]any)
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	bundle := bundles[0].(map[string]any)
	if bundle["bundle_id"] != bundleID.String() {
		t.Fatalf("unexpected bundle id %v", bundle["bundle_id"])
	}
	docs := bundle["documents"].([]any)
	if payload := docs[0].(map[string]any)["payload"]; payload != "<doc/>" {
		t.Fatalf("payload must be returned as text, got %v", payload)
	}
}

func TestPeekBundlesEmptyResultIsOK(t *testing.T) {
	rec := httptest.NewRecorder()
	PeekBundles(&fakeRetrieval{}, nil)(rec, peekRequest("cim_json"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an empty peek, got %d", rec.Code)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if bundles := envelope.Data.(map[string]any)["bundles"].([]any); len(bundles) != 0 {
		t.Fatalf("expected no bundles, got %d", len(bundles))
	}
}

func TestPeekBundlesMapsValidationErrors(t *testing.T) {
	retrieval := &fakeRetrieval{err: pkgerrors.New(pkgerrors.CodeValidation, "invalid document format")}

	rec := httptest.NewRecorder()
	PeekBundles(retrieval, nil)(rec, peekRequest("csv"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

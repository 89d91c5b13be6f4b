package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/voltbridge/markethub/api/middleware"
	"github.com/voltbridge/markethub/api/responses"
	"github.com/voltbridge/markethub/internal/requests"
	"github.com/voltbridge/markethub/pkg/db/models"
	pkgerrors "github.com/voltbridge/markethub/pkg/errors"
	"github.com/voltbridge/markethub/pkg/logger"
)

// IntakeService accepts authorized market requests for dispatch.
type IntakeService interface {
	Submit(ctx context.Context, req requests.MarketRequest) ([]models.Process, error)
}

type submittedProcess struct {
	ProcessID           string `json:"process_id"`
	SeriesTransactionID string `json:"series_transaction_id"`
	GridArea            string `json:"grid_area"`
	State               string `json:"state"`
}

type submitResponse struct {
	RequestTransactionID string             `json:"request_transaction_id"`
	Processes            []submittedProcess `json:"processes"`
}

// SubmitMarketRequest parses an incoming market request, stamps the
// authenticated actor as its submitter and hands it to the intake service.
func SubmitMarketRequest(intake IntakeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requests.MarketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		// The token decides who is asking; body-supplied values are ignored.
		req.RequestedByNumber = middleware.ActorNumberFromContext(r.Context())
		req.RequestedByRole = middleware.ActorRoleFromContext(r.Context())

		procs, err := intake.Submit(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := submitResponse{
			RequestTransactionID: req.TransactionID,
			Processes:            make([]submittedProcess, 0, len(procs)),
		}
		for _, proc := range procs {
			resp.Processes = append(resp.Processes, submittedProcess{
				ProcessID:           proc.ID.String(),
				SeriesTransactionID: proc.SeriesTransactionID,
				GridArea:            proc.GridArea,
				State:               proc.State.String(),
			})
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, resp)
	}
}

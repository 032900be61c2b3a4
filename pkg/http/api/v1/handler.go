package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/filter"
	"github.com/aquasecurity/bandit-adapter/pkg/http/api"
	"github.com/aquasecurity/bandit-adapter/pkg/job"
	"github.com/aquasecurity/bandit-adapter/pkg/persistence"
	"github.com/aquasecurity/bandit-adapter/pkg/queue"
)

const (
	pathAPIPrefix        = "/api/v1"
	pathScan             = "/scan"
	pathScanJob          = "/scan/{scan_request_id}"
	pathScanReport       = "/scan/{scan_request_id}/report"
	pathVarScanRequestID = "scan_request_id"
	pathMetadata         = "/metadata"
	pathProbeHealthy     = "/probe/healthy"
	pathProbeReady       = "/probe/ready"

	mimeTypeForm       = "application/x-www-form-urlencoded"
	headerReportDigest = "X-Bandit-Report-Digest"
)

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

type ScanResponse struct {
	ID string `json:"id"`
}

type Metadata struct {
	Scanner        etc.Scanner `json:"scanner"`
	FilterCriteria string      `json:"filter_criteria"`
}

type requestHandler struct {
	enqueuer queue.Enqueuer
	store    persistence.Store
	wrapper  bandit.Wrapper
	api.BaseHandler
}

func NewAPIHandler(enqueuer queue.Enqueuer, store persistence.Store, wrapper bandit.Wrapper) http.Handler {
	handler := &requestHandler{
		enqueuer: enqueuer,
		store:    store,
		wrapper:  wrapper,
	}

	router := mux.NewRouter()
	router.Methods(http.MethodGet).Path(pathProbeHealthy).HandlerFunc(handler.GetHealthy)
	router.Methods(http.MethodGet).Path(pathProbeReady).HandlerFunc(handler.GetReady)

	v1Router := router.PathPrefix(pathAPIPrefix).Subrouter()
	v1Router.Methods(http.MethodPost).Path(pathScan).HandlerFunc(handler.AcceptScanRequest)
	v1Router.Methods(http.MethodGet).Path(pathScanJob).HandlerFunc(handler.GetScanJob)
	v1Router.Methods(http.MethodGet).Path(pathScanReport).HandlerFunc(handler.GetScanReport)
	v1Router.Methods(http.MethodGet).Path(pathMetadata).HandlerFunc(handler.GetMetadata)
	return router
}

func (h *requestHandler) AcceptScanRequest(res http.ResponseWriter, req *http.Request) {
	scanRequest, err := decodeScanRequest(req)
	if err != nil {
		slog.Error("Error while unmarshalling scan request", slog.String("err", err.Error()))
		h.WriteJSONError(res, api.Error{
			HTTPCode: http.StatusBadRequest,
			Message:  fmt.Sprintf("unmarshalling scan request: %s", err.Error()),
		})
		return
	}

	if scanRequest.Label == "" {
		scanRequest.Label = filepath.Base(scanRequest.Source)
	}

	if validationError := h.ValidateScanRequest(scanRequest); validationError != nil {
		slog.Error("Error while validating scan request", slog.String("err", validationError.Message))
		h.WriteJSONError(res, *validationError)
		return
	}

	scanJob, err := h.enqueuer.Enqueue(req.Context(), scanRequest)
	if err != nil {
		slog.Error("Error while enqueuing scan job", slog.String("err", err.Error()))
		h.WriteJSONError(res, api.Error{
			HTTPCode: http.StatusInternalServerError,
			Message:  fmt.Sprintf("enqueuing scan job: %s", err.Error()),
		})
		return
	}
	slog.Debug("Enqueued scan job", slog.String("scan_job_id", scanJob.ID))

	h.WriteJSON(res, ScanResponse{ID: scanJob.ID}, api.MimeTypeScanResponse, http.StatusAccepted)
}

func decodeScanRequest(req *http.Request) (job.ScanRequest, error) {
	var scanRequest job.ScanRequest

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get(api.HeaderContentType))
	if mediaType == mimeTypeForm {
		if err := req.ParseForm(); err != nil {
			return scanRequest, err
		}
		err := formDecoder.Decode(&scanRequest, req.PostForm)
		return scanRequest, err
	}

	err := json.NewDecoder(req.Body).Decode(&scanRequest)
	return scanRequest, err
}

// ValidateScanRequest accepts only sources inside the sources dir and labels
// that name a single directory under the results dir.
func (h *requestHandler) ValidateScanRequest(req job.ScanRequest) *api.Error {
	if req.Source == "" {
		return &api.Error{
			HTTPCode: http.StatusUnprocessableEntity,
			Message:  "missing source",
		}
	}

	if !filepath.IsLocal(req.Source) {
		return &api.Error{
			HTTPCode: http.StatusUnprocessableEntity,
			Message:  "invalid source",
		}
	}

	if req.Label == "." || strings.ContainsAny(req.Label, `/\`) || !filepath.IsLocal(req.Label) {
		return &api.Error{
			HTTPCode: http.StatusUnprocessableEntity,
			Message:  "invalid label",
		}
	}

	return nil
}

func (h *requestHandler) GetScanJob(res http.ResponseWriter, req *http.Request) {
	scanJob, ok := h.getScanJob(res, req)
	if !ok {
		return
	}
	h.WriteJSON(res, scanJob, api.MimeTypeScanJob, http.StatusOK)
}

func (h *requestHandler) GetScanReport(res http.ResponseWriter, req *http.Request) {
	slog.Debug("Get scan report request received")
	scanJob, ok := h.getScanJob(res, req)
	if !ok {
		return
	}

	reqLog := slog.With(slog.String("scan_job_id", scanJob.ID))

	if scanJob.Status == job.Queued || scanJob.Status == job.Pending {
		reqLog.Debug("Scan job has not finished yet", slog.String("scan_job_status", scanJob.Status.String()))
		res.Header().Set("Location", req.URL.String())
		res.WriteHeader(http.StatusFound)
		return
	}

	if scanJob.Status == job.Failed {
		reqLog.Error("Scan job failed", slog.String("err", scanJob.Error))
		h.WriteJSONError(res, api.Error{
			HTTPCode: http.StatusInternalServerError,
			Message:  scanJob.Error,
		})
		return
	}

	if scanJob.Status != job.Finished || scanJob.Result == nil {
		reqLog.Error("Unexpected scan job status", slog.String("scan_job_status", scanJob.Status.String()))
		h.WriteJSONError(res, api.Error{
			HTTPCode: http.StatusInternalServerError,
			Message:  fmt.Sprintf("unexpected status %v of scan job %v", scanJob.Status, scanJob.ID),
		})
		return
	}

	report, err := os.ReadFile(scanJob.Result.FilteredPath)
	if err != nil {
		reqLog.Error("Error while reading filtered report", slog.String("err", err.Error()))
		h.WriteJSONError(res, api.Error{
			HTTPCode: http.StatusInternalServerError,
			Message:  fmt.Sprintf("reading filtered report: %v", err),
		})
		return
	}

	res.Header().Set(api.HeaderContentType, api.MimeTypeSecurityReport.String())
	res.Header().Set(headerReportDigest, scanJob.Result.ReportDigest)
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write(report)
}

func (h *requestHandler) getScanJob(res http.ResponseWriter, req *http.Request) (*job.ScanJob, bool) {
	vars := mux.Vars(req)
	scanJobID, ok := vars[pathVarScanRequestID]
	if !ok {
		slog.Error("Error while parsing `scan_request_id` path variable")
		h.WriteJSONError(res, api.Error{
			HTTPCode: http.StatusBadRequest,
			Message:  "missing scan_request_id",
		})
		return nil, false
	}

	scanJob, err := h.store.Get(req.Context(), scanJobID)
	if err != nil {
		slog.Error("Error while getting scan job", slog.String("scan_job_id", scanJobID), slog.String("err", err.Error()))
		h.WriteJSONError(res, api.Error{
			HTTPCode: http.StatusInternalServerError,
			Message:  fmt.Sprintf("getting scan job: %v", err),
		})
		return nil, false
	}

	if scanJob == nil {
		slog.Error("Cannot find scan job", slog.String("scan_job_id", scanJobID))
		h.WriteJSONError(res, api.Error{
			HTTPCode: http.StatusNotFound,
			Message:  fmt.Sprintf("cannot find scan job: %v", scanJobID),
		})
		return nil, false
	}

	return scanJob, true
}

func (h *requestHandler) GetMetadata(res http.ResponseWriter, req *http.Request) {
	version, err := h.wrapper.GetVersion(req.Context())
	if err != nil {
		slog.Error("Error while getting bandit version", slog.String("err", err.Error()))
	}

	metadata := &Metadata{
		Scanner:        etc.GetScannerMetadata(version),
		FilterCriteria: filter.Criteria,
	}
	h.WriteJSON(res, metadata, api.MimeTypeMetadata, http.StatusOK)
}

func (h *requestHandler) GetHealthy(res http.ResponseWriter, _ *http.Request) {
	res.WriteHeader(http.StatusOK)
}

func (h *requestHandler) GetReady(res http.ResponseWriter, req *http.Request) {
	if _, err := h.wrapper.GetVersion(req.Context()); err != nil {
		slog.Warn("Bandit is not ready", slog.String("err", err.Error()))
		res.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	res.WriteHeader(http.StatusOK)
}

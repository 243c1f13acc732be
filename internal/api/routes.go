package api

import (
	"net/http"

	"github.com/RMahshie/labfit/internal/api/handlers"
	"github.com/RMahshie/labfit/internal/processing"
	"github.com/RMahshie/labfit/internal/repository"
	"github.com/RMahshie/labfit/internal/storage"
	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, s3Service storage.S3Service, runRepo repository.RunRepository, processingSvc processing.ProcessingService) {
	// Initialize handlers
	runHandler := handlers.NewRunHandler(runRepo, s3Service, processingSvc)

	huma.Register(api, huma.Operation{
		OperationID: "createUpload",
		Method:      http.MethodPost,
		Path:        "/api/uploads",
		Summary:     "Create a source upload",
		Description: "Returns a pre-signed URL for uploading one CSV series source",
		Tags:        []string{"Uploads"},
	}, runHandler.CreateUpload)

	// Register run routes
	huma.Register(api, huma.Operation{
		OperationID: "createRun",
		Method:      http.MethodPost,
		Path:        "/api/runs",
		Summary:     "Run an analysis",
		Description: "Fits models or detects peaks over inline series and returns the summary",
		Tags:        []string{"Runs"},
	}, runHandler.CreateRun)

	huma.Register(api, huma.Operation{
		OperationID: "importRun",
		Method:      http.MethodPost,
		Path:        "/api/runs/import",
		Summary:     "Import uploaded sources",
		Description: "Creates a run over uploaded CSV sources and processes it in the background",
		Tags:        []string{"Runs"},
	}, runHandler.ImportRun)

	huma.Register(api, huma.Operation{
		OperationID: "getRunStatus",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/status",
		Summary:     "Get run status",
		Description: "Returns the current status and progress of a run",
		Tags:        []string{"Runs"},
	}, runHandler.GetRunStatus)

	huma.Register(api, huma.Operation{
		OperationID: "getRunResults",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/results",
		Summary:     "Get run results",
		Description: "Returns the summary table, failures and artifact plan of a completed run",
		Tags:        []string{"Runs"},
	}, runHandler.GetRunResults)

	huma.Register(api, huma.Operation{
		OperationID: "getRunExport",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/export",
		Summary:     "Get run export",
		Description: "Returns a download URL for the exported summary table",
		Tags:        []string{"Runs"},
	}, runHandler.GetRunExport)
}

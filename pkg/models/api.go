package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// CreateUploadRequest asks for an upload URL for one CSV series source
type CreateUploadRequest struct {
	Body struct {
		SampleName string `json:"sample_name" minLength:"1" maxLength:"100" required:"true" doc:"Sample (sheet) name"`
		FileSize   int64  `json:"file_size" minimum:"1" maximum:"10485760" required:"true" doc:"CSV size in bytes"`
		MimeType   string `json:"mime_type" enum:"text/csv" required:"true" doc:"Source MIME type"`
	}
}

// CreateUploadResponseBody is the body of the create upload response
type CreateUploadResponseBody struct {
	Key       string `json:"key" doc:"Object key to reference in an import"`
	UploadURL string `json:"upload_url" doc:"Pre-signed S3 URL for file upload"`
	ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
}

// CreateUploadResponse represents the response from creating an upload
type CreateUploadResponse struct {
	Body CreateUploadResponseBody
}

// CreateRunRequest runs an analysis over inline series
type CreateRunRequest struct {
	Body struct {
		AnalysisType string     `json:"analysis_type" enum:"kinetics,isotherm,ftir,xrd" required:"true" doc:"Analysis type"`
		Series       []Series   `json:"series" minItems:"1" required:"true" doc:"Series to analyze"`
		Options      RunOptions `json:"options,omitempty" doc:"Run options"`
	}
}

// ImportRunRequest runs an analysis over previously uploaded CSV sources
type ImportRunRequest struct {
	Body struct {
		AnalysisType string     `json:"analysis_type" enum:"kinetics,isotherm,ftir,xrd" required:"true" doc:"Analysis type"`
		SourceKeys   []string   `json:"source_keys" minItems:"1" required:"true" doc:"Uploaded object keys, one series each"`
		Options      RunOptions `json:"options,omitempty" doc:"Run options"`
	}
}

// ImportRunResponseBody is the body of the import response
type ImportRunResponseBody struct {
	ID     string `json:"id" doc:"Run ID"`
	Status string `json:"status" doc:"Run status"`
}

// ImportRunResponse represents the response from starting an import
type ImportRunResponse struct {
	Body ImportRunResponseBody
}

// RunResultsResponse wraps a run summary
type RunResultsResponse struct {
	Body RunSummary
}

// GetRunRequest addresses a single run
type GetRunRequest struct {
	ID string `path:"id" doc:"Run ID"`
}

// GetRunStatusResponseBody is the body of the status response
type GetRunStatusResponseBody struct {
	ID          string `json:"id" doc:"Run ID"`
	Status      string `json:"status" enum:"pending,processing,completed,failed" doc:"Run status"`
	Progress    int    `json:"progress" minimum:"0" maximum:"100" doc:"Run progress percentage"`
	Message     string `json:"message,omitempty" doc:"Human-readable status message"`
	RecordCount int    `json:"record_count" doc:"Summary rows stored"`
}

// GetRunStatusResponse represents the current status of a run
type GetRunStatusResponse struct {
	Body GetRunStatusResponseBody
}

// GetRunExportResponseBody is the body of the export response
type GetRunExportResponseBody struct {
	Key         string `json:"key" doc:"Object key of the summary table"`
	DownloadURL string `json:"download_url" doc:"Pre-signed download URL"`
}

// GetRunExportResponse represents the export download link
type GetRunExportResponse struct {
	Body GetRunExportResponseBody
}

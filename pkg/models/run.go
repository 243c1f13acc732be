package models

import (
	"time"
)

// Run statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// RunOptions tunes a single run; zero values fall back to service defaults
type RunOptions struct {
	ProminenceThreshold *float64 `json:"prominence_threshold,omitempty" minimum:"0" doc:"XRD peak prominence threshold"`
	MaxPeaks            *int     `json:"max_peaks,omitempty" minimum:"0" doc:"XRD peaks kept per sample (0 = all)"`
	Models              []string `json:"models,omitempty" doc:"Restrict fitting to these catalog models"`
	ExportFormat        string   `json:"export_format,omitempty" enum:"csv,parquet" doc:"Summary table format"`
}

// Run represents one batch analysis (for internal use)
type Run struct {
	ID           string       `json:"id"`
	AnalysisType AnalysisType `json:"analysis_type"`
	Status       string       `json:"status"`
	Progress     int          `json:"progress"`
	SourceKeys   []string     `json:"source_keys,omitempty"`
	SeriesNames  []string     `json:"series_names,omitempty"`
	Options      RunOptions   `json:"options"`
	ErrorMsg     *string      `json:"error_message,omitempty"`
	RecordCount  int          `json:"record_count"`
	ExportKey    *string      `json:"export_key,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// StageLoad marks a failure to read a series source; such series have no data
const StageLoad = "load"

// UnitFailure records a per-series (or per-series, per-model) failure
type UnitFailure struct {
	Sample string `json:"sample" doc:"Series name"`
	Model  string `json:"model,omitempty" doc:"Model name when a fit failed"`
	Stage  string `json:"stage,omitempty" enum:"load" doc:"Set when the series source could not be read"`
	Error  string `json:"error" doc:"Failure reason"`
}

// Artifact describes one figure the renderer should produce for a run
type Artifact struct {
	Name      string  `json:"name" doc:"Artifact base name"`
	Sample    string  `json:"sample,omitempty" doc:"Series drawn; empty for composites"`
	Color     string  `json:"color,omitempty" doc:"Trace color"`
	Offset    float64 `json:"offset" doc:"Vertical offset in the composite figure"`
	Composite bool    `json:"composite" doc:"Whether this overlays every series"`
	Traces    []Trace `json:"traces,omitempty" doc:"Offset series of a composite, when the data is at hand"`
}

// Trace is one offset line of a composite figure
type Trace struct {
	Name   string  `json:"name" doc:"Series name"`
	Color  string  `json:"color" doc:"Trace color"`
	Offset float64 `json:"offset" doc:"Vertical offset applied to every point"`
	Points []Point `json:"points" doc:"Shifted points"`
}

// RunSummary is what a finished run hands back to callers
type RunSummary struct {
	ID           string          `json:"id" doc:"Run ID"`
	AnalysisType AnalysisType    `json:"analysis_type" doc:"Analysis type"`
	Status       string          `json:"status" enum:"pending,processing,completed,failed" doc:"Run status"`
	Empty        bool            `json:"empty" doc:"True when no series produced a usable record"`
	Fits         []FitResult     `json:"fits,omitempty" doc:"Fit results in series then catalog order"`
	Records      []SummaryRecord `json:"records" doc:"Summary table rows"`
	Failures     []UnitFailure   `json:"failures,omitempty" doc:"Units that failed in isolation"`
	Artifacts    []Artifact      `json:"artifacts,omitempty" doc:"Figures to render"`
	ExportKey    *string         `json:"export_key,omitempty" doc:"Object key of the exported summary table"`
	CreatedAt    time.Time       `json:"created_at" doc:"Run creation timestamp"`
}

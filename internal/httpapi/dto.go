package httpapi

import (
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

// monitorRequest is the wire shape POST/PUT /api/monitors accepts
// (§6: `{name, url, pipeline, interval|schedule, enabled, tags}`).
type monitorRequest struct {
	Name     string              `json:"name" validate:"required"`
	URL      string              `json:"url" validate:"required,url"`
	Pipeline []monitor.StageSpec `json:"pipeline" validate:"required,min=1"`
	Interval int                 `json:"interval"`
	Schedule string              `json:"schedule"`
	Enabled  *bool               `json:"enabled"`
	Tags     []string            `json:"tags"`
}

func (r monitorRequest) toMonitor() monitor.Monitor {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return monitor.Monitor{
		Name:     r.Name,
		URL:      r.URL,
		Pipeline: r.Pipeline,
		Interval: r.Interval,
		Schedule: r.Schedule,
		Enabled:  enabled,
		Tags:     r.Tags,
	}
}

// toPatch treats PUT as a full replace: every field of the request
// overwrites the stored monitor, matching §6's PUT semantics.
func (r monitorRequest) toPatch() monitor.Patch {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	interval := r.Interval
	schedule := r.Schedule
	return monitor.Patch{
		Name:     &r.Name,
		URL:      &r.URL,
		Pipeline: r.Pipeline,
		Interval: &interval,
		Schedule: &schedule,
		Enabled:  &enabled,
		Tags:     r.Tags,
	}
}

// monitorResponse is the wire shape every monitor-returning endpoint
// responds with.
type monitorResponse struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	URL        string              `json:"url"`
	Pipeline   []monitor.StageSpec `json:"pipeline"`
	Interval   int                 `json:"interval,omitempty"`
	Schedule   string              `json:"schedule,omitempty"`
	Enabled    bool                `json:"enabled"`
	Tags       []string            `json:"tags"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	LastCheck  *time.Time          `json:"last_check,omitempty"`
	LastStatus string              `json:"last_status,omitempty"`
}

func newMonitorResponse(m monitor.Monitor) monitorResponse {
	return monitorResponse{
		ID:         m.ID,
		Name:       m.Name,
		URL:        m.URL,
		Pipeline:   m.Pipeline,
		Interval:   m.Interval,
		Schedule:   m.Schedule,
		Enabled:    m.Enabled,
		Tags:       m.Tags,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		LastCheck:  m.LastCheck,
		LastStatus: m.LastStatus,
	}
}

// checkResultResponse is the wire shape for CheckResult (§3, §6).
type checkResultResponse struct {
	ID        string         `json:"id"`
	MonitorID string         `json:"monitor_id"`
	CheckedAt time.Time      `json:"checked_at"`
	Status    stage.Status   `json:"status"`
	Message   string         `json:"message"`
	ElapsedMs float64        `json:"elapsed_ms"`
	Details   map[string]any `json:"details,omitempty"`
}

func newCheckResultResponse(r check.Result) checkResultResponse {
	return checkResultResponse{
		ID:        r.ID,
		MonitorID: r.MonitorID,
		CheckedAt: r.CheckedAt,
		Status:    r.Status,
		Message:   r.Message,
		ElapsedMs: r.ElapsedMs,
		Details:   r.Details,
	}
}

// stageMetadataResponse is the wire shape for GET /api/stages entries.
type stageMetadataResponse struct {
	Type           string               `json:"type"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	IsNetworkStage bool                 `json:"is_network_stage"`
	Options        []stageOptionResponse `json:"options"`
}

type stageOptionResponse struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description"`
}

func newStageMetadataResponse(m stage.Metadata) stageMetadataResponse {
	opts := make([]stageOptionResponse, 0, len(m.Options))
	for _, o := range m.Options {
		opts = append(opts, stageOptionResponse{
			Name:        o.Name,
			Label:       o.Label,
			Type:        o.Type,
			Required:    o.Required,
			Default:     o.Default,
			Description: o.Description,
		})
	}
	return stageMetadataResponse{
		Type:           m.Name,
		Name:           m.Name,
		Description:    m.Description,
		IsNetworkStage: m.IsNetworkStage,
		Options:        opts,
	}
}

package httpapi

import (
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

// validateMonitor runs the create/update-time checks of §7: the field-level
// invariants of §3 (name/url bounds, pipeline non-empty, stage types known,
// interval/schedule), every stage spec's options must construct
// successfully (BadStageConfigError), and the pipeline as a whole must be
// structurally valid (BadPipelineError — at least one network stage), the
// same check the executor itself runs before the first run (§4.3).
func (s *Server) validateMonitor(m monitor.Monitor) error {
	if err := s.validate.Struct(monitorRequest{Name: m.Name, URL: m.URL, Pipeline: m.Pipeline}); err != nil {
		return uperrors.NewValidationError("monitor", "request failed field validation", err)
	}
	if err := monitor.Validate(&m, s.registry.Known); err != nil {
		return err
	}

	hasNetwork := false
	for i, spec := range m.Pipeline {
		if _, err := s.registry.Construct(m.ID, i, spec); err != nil {
			return err
		}
		if s.registry.IsNetworkStage(spec.Type()) {
			hasNetwork = true
		}
	}
	if !hasNetwork {
		return uperrors.NewBadPipelineError(m.ID, "pipeline must contain at least one network stage")
	}
	return nil
}

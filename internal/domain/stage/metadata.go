package stage

import "fmt"

// Option describes one constructor option a stage accepts, in the shape
// the REST adapter's GET /api/stages endpoint reports.
type Option struct {
	Name        string
	Label       string
	Type        string
	Required    bool
	Default     any
	Description string
}

// Metadata describes a registered stage's identity and introspection
// surface. Name matches the spec `type` key used in stage specs.
type Metadata struct {
	Name           string
	Description    string
	IsNetworkStage bool
	Options        []Option
}

// Validate ensures metadata values satisfy the registry's invariants.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("stage name is required")
	}
	if m.Description == "" {
		return fmt.Errorf("stage %q: description is required", m.Name)
	}
	return nil
}

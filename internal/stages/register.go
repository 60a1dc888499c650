package stages

import (
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	"github.com/alexisbeaulieu97/uptimer/internal/registry"
)

// Register wires every built-in stage type into reg. Called once at
// process startup, before the registry is only read (§9 "Concurrency
// safety of the registry").
func Register(reg *registry.Registry) error {
	for _, r := range builtins() {
		if err := reg.Register(r); err != nil {
			return err
		}
	}
	return nil
}

func builtins() []registry.Registration {
	return []registry.Registration{
		{
			Metadata: stage.Metadata{
				Name:           "http",
				Description:    "Performs a GET request and follows redirects.",
				IsNetworkStage: true,
				Options: []stage.Option{
					{Name: "timeout", Label: "Timeout", Type: "number", Default: 10, Description: "Request timeout in seconds."},
					{Name: "headers", Label: "Headers", Type: "object", Description: "Additional request headers."},
				},
			},
			New: newHTTPStage,
		},
		{
			Metadata: stage.Metadata{
				Name:           "ssl",
				Description:    "Inspects the TLS certificate served at the monitor's host.",
				IsNetworkStage: true,
				Options: []stage.Option{
					{Name: "warn_days", Label: "Warn days", Type: "number", Default: 30, Description: "Degrade when this many days or fewer remain."},
				},
			},
			New: newSSLStage,
		},
		{
			Metadata: stage.Metadata{
				Name:           "tcp",
				Description:    "Opens a TCP connection to the monitor's host on a given port.",
				IsNetworkStage: true,
				Options: []stage.Option{
					{Name: "port", Label: "Port", Type: "number", Required: true, Description: "TCP port to connect to."},
				},
			},
			New: newTCPStage,
		},
		{
			Metadata: stage.Metadata{
				Name:           "dns",
				Description:    "Resolves the monitor's host to its A records.",
				IsNetworkStage: true,
				Options: []stage.Option{
					{Name: "expected_ip", Label: "Expected IP", Type: "string", Description: "Resolved addresses must include this IP."},
				},
			},
			New: newDNSStage,
		},
		{
			Metadata: stage.Metadata{
				Name:        "jq",
				Description: "Extracts a value from the JSON response body using a gjson path expression.",
				Options: []stage.Option{
					{Name: "expr", Label: "Expression", Type: "string", Required: true, Description: "gjson path expression."},
					{Name: "store_as", Label: "Store as", Type: "string", Description: "Value name for later stages to reference."},
				},
			},
			New: newJQStage,
		},
		{
			Metadata: stage.Metadata{
				Name:        "jsonpath",
				Description: "Extracts a value from the JSON response body using a JSONPath expression.",
				Options: []stage.Option{
					{Name: "expr", Label: "Expression", Type: "string", Required: true, Description: "JSONPath expression."},
					{Name: "store_as", Label: "Store as", Type: "string", Description: "Value name for later stages to reference."},
				},
			},
			New: newJSONPathStage,
		},
		{
			Metadata: stage.Metadata{
				Name:        "regex",
				Description: "Matches a regular expression against the textual response body.",
				Options: []stage.Option{
					{Name: "pattern", Label: "Pattern", Type: "string", Required: true, Description: "Regular expression."},
					{Name: "store_as", Label: "Store as", Type: "string", Description: "Value name for later stages to reference."},
				},
			},
			New: newRegexStage,
		},
		{
			Metadata: stage.Metadata{
				Name:        "header",
				Description: "Looks up a response header by name.",
				Options: []stage.Option{
					{Name: "pattern", Label: "Header name", Type: "string", Required: true, Description: "Header name, matched case-insensitively."},
					{Name: "store_as", Label: "Store as", Type: "string", Description: "Value name for later stages to reference."},
				},
			},
			New: newHeaderStage,
		},
		{
			Metadata: stage.Metadata{
				Name:        "threshold",
				Description: "Asserts a numeric value falls within an inclusive range.",
				Options: []stage.Option{
					{Name: "value", Label: "Value", Type: "string", Required: true, Description: "Literal number or $reference."},
					{Name: "min", Label: "Minimum", Type: "number", Description: "Inclusive lower bound."},
					{Name: "max", Label: "Maximum", Type: "number", Description: "Inclusive upper bound."},
				},
			},
			New: newThresholdStage,
		},
		{
			Metadata: stage.Metadata{
				Name:        "contains",
				Description: "Asserts a substring is (or is not) present in the response body.",
				Options: []stage.Option{
					{Name: "pattern", Label: "Pattern", Type: "string", Required: true, Description: "Substring to search for."},
					{Name: "negate", Label: "Negate", Type: "bool", Default: false, Description: "Invert the match."},
				},
			},
			New: newContainsStage,
		},
		{
			Metadata: stage.Metadata{
				Name:        "age",
				Description: "Asserts an ISO-8601 timestamp is recent enough.",
				Options: []stage.Option{
					{Name: "value", Label: "Value", Type: "string", Required: true, Description: "Literal timestamp or $reference."},
					{Name: "max_age", Label: "Max age (s)", Type: "number", Required: true, Description: "Maximum acceptable age in seconds."},
				},
			},
			New: newAgeStage,
		},
		{
			Metadata: stage.Metadata{
				Name:        "json-schema",
				Description: "Validates the JSON response body against a schema.",
				Options: []stage.Option{
					{Name: "schema", Label: "Schema", Type: "object", Required: true, Description: "JSON Schema document."},
				},
			},
			New: newJSONSchemaStage,
		},
	}
}

package stage

import "testing"

func TestMetadataValidate(t *testing.T) {
	meta := Metadata{
		Name:           "http",
		Description:    "HTTP probe",
		IsNetworkStage: true,
	}
	if err := meta.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	cases := []struct {
		name string
		meta Metadata
	}{
		{name: "missing name", meta: Metadata{Description: "x"}},
		{name: "missing description", meta: Metadata{Name: "http"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.meta.Validate(); err == nil {
				t.Fatalf("expected validation failure for %s", tc.name)
			}
		})
	}
}

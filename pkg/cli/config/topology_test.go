package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/caseops/workbasket/pkg/cli/config"
)

func TestLoadTopologyConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name: "valid topology",
			content: `
[[workgroup]]
code = "TRIAGE"
name = "Triage"
description = "First-line triage"
fax_sourced = true
members = ["alice", "bob"]

[[workgroup]]
code = "REVIEW"
name = "Review"
portal_sourced = true
members = ["carol"]

[[workbasket]]
code = "INTAKE"
name = "Intake pool"
groups = ["TRIAGE", "REVIEW"]
`,
			wantErr: false,
		},
		{
			name: "group without members is allowed",
			content: `
[[workgroup]]
code = "EMPTY"
name = "Empty group"
`,
			wantErr: false,
		},
		{
			name: "missing group code",
			content: `
[[workgroup]]
name = "No code"
`,
			wantErr: true,
		},
		{
			name: "missing group name",
			content: `
[[workgroup]]
code = "NONAME"
`,
			wantErr: true,
		},
		{
			name: "duplicate group code",
			content: `
[[workgroup]]
code = "DUP"
name = "First"

[[workgroup]]
code = "DUP"
name = "Second"
`,
			wantErr: true,
		},
		{
			name: "basket references unknown group",
			content: `
[[workbasket]]
code = "POOL"
name = "Pool"
groups = ["GHOST"]
`,
			wantErr: true,
		},
		{
			name: "duplicate basket code",
			content: `
[[workbasket]]
code = "POOL"
name = "First"

[[workbasket]]
code = "POOL"
name = "Second"
`,
			wantErr: true,
		},
		{
			name:    "invalid TOML",
			content: `[[workgroup`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "topology.toml")
			gt.NoError(t, os.WriteFile(path, []byte(tc.content), 0600)).Required()

			topo, err := config.LoadTopologyConfig(path)
			if tc.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, topo).NotNil()
		})
	}
}

func TestLoadTopologyConfig_FileNotFound(t *testing.T) {
	_, err := config.LoadTopologyConfig(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Error(t, err)
}

func TestLoadTopologyConfig_ParsesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.toml")
	content := `
[[workgroup]]
code = "TRIAGE"
name = "Triage"
fax_sourced = true
members = ["alice", "bob"]

[[workbasket]]
code = "INTAKE"
name = "Intake pool"
groups = ["TRIAGE"]
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()

	topo, err := config.LoadTopologyConfig(path)
	gt.NoError(t, err).Required()

	gt.Array(t, topo.Groups).Length(1)
	gt.Value(t, topo.Groups[0].Code).Equal("TRIAGE")
	gt.Bool(t, topo.Groups[0].FaxSourced).True()
	gt.Array(t, topo.Groups[0].Members).Equal([]string{"alice", "bob"})

	gt.Array(t, topo.Baskets).Length(1)
	gt.Value(t, topo.Baskets[0].Groups).Equal([]string{"TRIAGE"})
}

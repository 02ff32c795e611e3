package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticSystem_Levels(t *testing.T) {
	tests := []struct {
		name        string
		level       DiagnosticLevel
		wantOut     []string
		wantMissing []string
		wantErr     string
	}{
		{
			name:        "quiet shows only errors",
			level:       DiagnosticError,
			wantMissing: []string{"[INFO]", "[WARN]"},
			wantErr:     "[ERROR] broken",
		},
		{
			name:        "info hides verbose",
			level:       DiagnosticInfo,
			wantOut:     []string{"[INFO] scanning", "[WARN] careful"},
			wantMissing: []string{"[VERBOSE]", "[DEBUG]"},
			wantErr:     "[ERROR] broken",
		},
		{
			name:    "debug shows everything",
			level:   DiagnosticDebug,
			wantOut: []string{"[INFO] scanning", "[VERBOSE] details", "[DEBUG] internals"},
			wantErr: "[ERROR] broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			d := NewDiagnosticSystem(tt.level)
			d.SetOutput(&out, &errOut)

			d.Info("scanning")
			d.Warn("careful")
			d.Verbose("details")
			d.Debug("internals")
			d.Error("broken")

			for _, s := range tt.wantOut {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.wantMissing {
				assert.NotContains(t, out.String(), s)
			}
			assert.Contains(t, errOut.String(), tt.wantErr)
		})
	}
}

func TestDiagnosticSystem_SummaryIsSorted(t *testing.T) {
	var out bytes.Buffer
	d := NewDiagnosticSystem(DiagnosticInfo)
	d.SetOutput(&out, &out)

	d.Summary("Summary", map[string]interface{}{"registered": 2, "classes": 5})
	assert.Equal(t, "\nSummary\n   classes: 5\n   registered: 2\n\n", out.String())
}

func TestDiagnosticSystem_Indent(t *testing.T) {
	var out bytes.Buffer
	d := NewDiagnosticSystem(DiagnosticInfo)
	d.SetOutput(&out, &out)

	d.Indent()
	d.List("app.Tx")
	d.Unindent()
	d.Unindent()
	d.List("app.Audit")

	assert.Equal(t, "  - app.Tx\n- app.Audit\n", out.String())
}

func TestParseDiagnosticLevel(t *testing.T) {
	level, err := ParseDiagnosticLevel("VERBOSE")
	require.NoError(t, err)
	assert.Equal(t, DiagnosticVerbose, level)

	_, err = ParseDiagnosticLevel("loud")
	assert.Error(t, err)
}

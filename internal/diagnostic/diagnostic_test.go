package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics(t *testing.T) {
	var d Diagnostics
	require.NoError(t, d.Err())

	d.AddWarning(CodeFieldsOmitted, "2 fields omitted", "shop.Account", "")
	d.AddError(CodeMissingNoArgConstructor, "no zero-argument constructor", "shop.Widget", "")
	d.AddInfo(CodeFieldsOmitted, "0 fields omitted", "shop.Account", "")

	var other Diagnostics
	other.AddError(CodeArtifactWriteFailure, "disk full", "shop.Account", "")
	d.Merge(other)

	assert.True(t, d.HasErrors())
	assert.Len(t, d.Errors(), 2)
	assert.Len(t, d.Warnings(), 1)
	assert.Len(t, d.Infos(), 1)
	assert.Equal(t, []string{CodeFieldsOmitted, CodeFieldsOmitted, CodeArtifactWriteFailure}, d.Codes("shop.Account"))
	assert.Equal(t, []string{CodeMissingNoArgConstructor}, d.Codes("shop.Widget"))

	err := d.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[shop.Widget]: [MissingNoArgConstructor] no zero-argument constructor")
	assert.Contains(t, err.Error(), "disk full")
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Severity: SeverityWarning, Code: CodeUnknownSource, Message: "cannot resolve", Class: "shop.Account", Field: "from"}
	assert.Equal(t, "[shop.Account] from: [UnknownSource] cannot resolve", d.String())
	assert.Equal(t, "cannot resolve", Diagnostic{Message: "cannot resolve"}.String())
	assert.Equal(t, "warning", SeverityWarning.String())
}

package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"email", "role"},
		Rows: []map[string]string{
			{"email": "a@x.com", "role": "teacher"},
			{"email": "b@x.com"},
		},
	})
	require.NoError(t, err)

	body := string(out)
	require.True(t, strings.HasPrefix(body, "\uFEFF"), "output must start with a UTF-8 BOM")

	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(body, "\uFEFF"), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "email,role", lines[0])
	require.Equal(t, "a@x.com,teacher", lines[1])
	require.Equal(t, "b@x.com,", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

package emit

import (
	"bytes"

	"github.com/dagshift/dagshift/internal/migrate"
)

// renderEnvFile produces the .env template. Keys are sorted so reruns are
// byte-identical; secret values stay as placeholders for the operator.
func renderEnvFile(vars map[string]string) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Environment variables required by the generated profiles and jobs.\n")
	buf.WriteString("# Replace every " + migrate.SecretPlaceholder + " value before running dbt or dg.\n")
	for _, line := range migrate.SortedEnvVars(vars) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

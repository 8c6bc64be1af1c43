package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/tise/internal/config"
	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/savefile"
)

// canonical is a save exactly as the game writes it (LF).
var canonical = strings.Join([]string{
	`{`,
	`    "currentID": {`,
	`        "value": 2`,
	`    },`,
	`    "gamestates": {`,
	`        "PavonisInteractive.TerraInvicta.TICouncilorState": [`,
	`            {`,
	`                "Key": {`,
	`                    "value": 1`,
	`                },`,
	`                "Value": {`,
	`                    "$type": "PavonisInteractive.TerraInvicta.TICouncilorState",`,
	`                    "displayName": "Ana",`,
	`                    "loyalty": 7`,
	`                }`,
	`            }`,
	`        ]`,
	`    }`,
	`}`,
}, "\n")

// nonCanonical is the same document written differently (compact, with
// a comment), which the serializer would reformat.
const nonCanonical = `{"currentID":{"value":2}, // next id
"gamestates":{"PavonisInteractive.TerraInvicta.TICouncilorState":[{"Key":{"value":1},"Value":{"$type":"PavonisInteractive.TerraInvicta.TICouncilorState","displayName":"Ana","loyalty":7}}]}}`

func writeSave(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func open(t *testing.T, path string) *Session {
	t.Helper()
	s, err := Open(path, config.Default(), nil)
	require.NoError(t, err)
	return s
}

// TestBytes_Passthrough verifies an unmodified save is returned byte for
// byte, even when the serializer would format it differently.
func TestBytes_Passthrough(t *testing.T) {
	s := open(t, writeSave(t, "odd.json", []byte(nonCanonical)))

	out, err := s.Bytes(model.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, nonCanonical, string(out))

	// Regenerating ignores the passthrough.
	gen, err := s.Generate(model.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, canonical, string(gen))
}

// TestBytes_AfterEdit re-serializes once the document is dirty.
func TestBytes_AfterEdit(t *testing.T) {
	s := open(t, writeSave(t, "save.json", []byte(canonical)))

	require.NoError(t, s.Document().SetProperty(1, "loyalty", int64(9)))
	assert.True(t, s.Dirty())

	out, err := s.Bytes(model.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(canonical, `"loyalty": 7`, `"loyalty": 9`, 1), string(out))
}

// TestSave_PreservesCRLF verifies an edited CRLF save keeps CRLF.
func TestSave_PreservesCRLF(t *testing.T) {
	crlf := strings.ReplaceAll(canonical, "\n", "\r\n")
	path := writeSave(t, "win.json", []byte(crlf))
	s := open(t, path)
	assert.Equal(t, model.LineEndingCRLF, s.LineEnding())

	require.NoError(t, s.Document().SetProperty(1, "displayName", "Bea"))
	require.NoError(t, s.Save())
	assert.False(t, s.Dirty())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(crlf, `"Ana"`, `"Bea"`, 1), string(data))
	assert.NotContains(t, strings.ReplaceAll(string(data), "\r\n", ""), "\n")
}

// TestSave_LineEndingOverride forces LF on a CRLF file, which disables the
// passthrough even without edits.
func TestSave_LineEndingOverride(t *testing.T) {
	crlf := strings.ReplaceAll(canonical, "\n", "\r\n")
	path := writeSave(t, "win.json", []byte(crlf))

	cfg := config.Default()
	cfg.LineEnding = "lf"
	s, err := Open(path, cfg, nil)
	require.NoError(t, err)

	out, err := s.Bytes(model.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, canonical, string(out))
}

// TestSaveAs_GzipRoundTrip writes a compressed copy and reads it back.
func TestSaveAs_GzipRoundTrip(t *testing.T) {
	s := open(t, writeSave(t, "save.json", []byte(canonical)))

	gzPath := filepath.Join(t.TempDir(), "copy.json.gz")
	require.NoError(t, s.SaveAs(gzPath))
	assert.Equal(t, gzPath, s.Path())
	assert.Equal(t, model.FormatGzip, s.Format())

	f, err := savefile.Read(gzPath)
	require.NoError(t, err)
	assert.Equal(t, model.FormatGzip, f.Format)
	assert.Equal(t, canonical, string(f.Text))

	// Reopening and saving unmodified keeps the compressed bytes intact.
	again := open(t, gzPath)
	out, err := again.Bytes(model.FormatGzip)
	require.NoError(t, err)
	assert.Equal(t, f.Original, out)

	// Converting back to plain JSON yields the original text.
	plain, err := again.Bytes(model.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, canonical, string(plain))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json"), config.Default(), nil)
	require.Error(t, err)
	assert.Equal(t, model.ExitIOError, err.(*model.CLIError).Code)

	_, err = Open(writeSave(t, "bad.json", []byte(`{"gamestates": {}}`)), config.Default(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformedDocument)
	assert.Equal(t, model.ExitMalformedDocument, model.ExitCodeFor(err))
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/savefile"
)

// fixture is a small save in the game's own formatting: two factions, one
// nation with a public opinion distribution, and a dangling reference (99).
var fixture = strings.Join([]string{
	`{`,
	`    "currentID": {`,
	`        "value": 20`,
	`    },`,
	`    "gamestates": {`,
	`        "PavonisInteractive.TerraInvicta.TIFactionState": [`,
	`            {`,
	`                "Key": {`,
	`                    "value": 1`,
	`                },`,
	`                "Value": {`,
	`                    "$type": "PavonisInteractive.TerraInvicta.TIFactionState",`,
	`                    "displayName": "Resistance",`,
	`                    "credits": 120,`,
	`                    "allies": [`,
	`                        {`,
	`                            "value": 2`,
	`                        },`,
	`                        {`,
	`                            "value": 99`,
	`                        }`,
	`                    ]`,
	`                }`,
	`            },`,
	`            {`,
	`                "Key": {`,
	`                    "value": 2`,
	`                },`,
	`                "Value": {`,
	`                    "$type": "PavonisInteractive.TerraInvicta.TIFactionState",`,
	`                    "displayName": "Servants",`,
	`                    "credits": 80,`,
	`                    "allies": []`,
	`                }`,
	`            }`,
	`        ],`,
	`        "PavonisInteractive.TerraInvicta.TINationState": [`,
	`            {`,
	`                "Key": {`,
	`                    "value": 10`,
	`                },`,
	`                "Value": {`,
	`                    "$type": "PavonisInteractive.TerraInvicta.TINationState",`,
	`                    "displayName": "France",`,
	`                    "publicOpinion": {`,
	`                        "Resistance": 0.3,`,
	`                        "Servants": 0.3,`,
	`                        "Undecided": 0.4`,
	`                    }`,
	`                }`,
	`            }`,
	`        ]`,
	`    }`,
	`}`,
}, "\n")

// setup writes the fixture to a temp dir and isolates config lookup from
// the host. It returns the save path.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	for _, name := range []string{"TISE_SAVE_DIR", "TISE_LINE_ENDING", "TISE_UNKNOWN_SENTINEL"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}

	path := filepath.Join(dir, "Autosave.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGroups(t *testing.T) {
	path := setup(t)

	out, err := run(t, "groups", "-f", path, "--json")
	require.NoError(t, err)

	var got struct {
		Groups []model.GroupSummary `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []model.GroupSummary{
		{Name: "PavonisInteractive.TerraInvicta.TIFactionState", DisplayName: "TIFactionState", Count: 2},
		{Name: "PavonisInteractive.TerraInvicta.TINationState", DisplayName: "TINationState", Count: 1},
	}, got.Groups)

	out, err = run(t, "groups", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "TIFactionState")
	assert.NotContains(t, out, "PavonisInteractive.")
}

func TestList(t *testing.T) {
	path := setup(t)

	out, err := run(t, "list", "-f", path, "TIFactionState")
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Resistance")
	assert.Contains(t, out, "Servants")

	out, err = run(t, "list", "-f", path, "PavonisInteractive.TerraInvicta.TIFactionState", "--json", "-n", "1")
	require.NoError(t, err)
	var got struct {
		Group    string                `json:"group"`
		Total    int                   `json:"total"`
		Entities []model.EntitySummary `json:"entities"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, []model.EntitySummary{{ID: 1, DisplayName: "Resistance", Index: 0}}, got.Entities)

	_, err = run(t, "list", "-f", path, "TIMissingState")
	require.Error(t, err)
	assert.Equal(t, model.ExitGroupNotFound, exitCode(err))
}

func TestFind(t *testing.T) {
	path := setup(t)

	out, err := run(t, "find", "-f", path, "servants")
	require.NoError(t, err)
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "TIFactionState")
	assert.NotContains(t, out, "#10")

	out, err = run(t, "find", "-f", path, "1", "-n", "1", "--json")
	require.NoError(t, err)
	var entities struct {
		Query    string                `json:"query"`
		Entities []model.EntitySummary `json:"entities"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entities))
	assert.Equal(t, "1", entities.Query)
	assert.Equal(t, []model.EntitySummary{{
		ID:          1,
		DisplayName: "Resistance",
		Group:       "PavonisInteractive.TerraInvicta.TIFactionState",
		Index:       0,
	}}, entities.Entities)

	out, err = run(t, "find", "-f", path, "--props", "servants", "--json")
	require.NoError(t, err)
	var props struct {
		Hits []model.Hit `json:"hits"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	require.Len(t, props.Hits, 2)
	assert.Equal(t, model.Hit{
		Location: model.Location{Group: "PavonisInteractive.TerraInvicta.TIFactionState", Index: 1},
		ID:       2,
		Property: "displayName",
		Preview:  "Servants",
	}, props.Hits[0])
	assert.Equal(t, int64(10), props.Hits[1].ID)
	assert.Equal(t, "publicOpinion", props.Hits[1].Property)

	out, err = run(t, "find", "-f", path, "--props", "nothing-like-this")
	require.NoError(t, err)
	assert.Contains(t, out, "No properties match")

	_, err = run(t, "find", "-f", path, "x", "-n", "-1")
	require.Error(t, err)
}

func TestShow(t *testing.T) {
	path := setup(t)

	out, err := run(t, "show", "-f", path, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Resistance")
	assert.Contains(t, out, "reference-list")
	assert.Contains(t, out, "#2 Servants")
	assert.Contains(t, out, "#99 <?~?~?>")

	out, err = run(t, "show", "-f", path, "10", "--output", "yaml")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		`$type: PavonisInteractive.TerraInvicta.TINationState`,
		`displayName: France`,
		`publicOpinion:`,
		`  Resistance: 0.3`,
		`  Servants: 0.3`,
		`  Undecided: 0.4`,
		``,
	}, "\n"), out)

	out, err = run(t, "show", "-f", path, "2", "--json")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		`{`,
		`    "$type": "PavonisInteractive.TerraInvicta.TIFactionState",`,
		`    "displayName": "Servants",`,
		`    "credits": 80,`,
		`    "allies": []`,
		`}`,
		``,
	}, "\n"), out)

	_, err = run(t, "show", "-f", path, "77")
	require.Error(t, err)
	assert.Equal(t, model.ExitEntityNotFound, exitCode(err))

	_, err = run(t, "show", "-f", path, "1", "--output", "xml")
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	path := setup(t)

	out, err := run(t, "get", "-f", path, "1", "credits")
	require.NoError(t, err)
	assert.Equal(t, "120\n", out)

	out, err = run(t, "get", "-f", path, "1", "displayName")
	require.NoError(t, err)
	assert.Equal(t, "\"Resistance\"\n", out)

	_, err = run(t, "get", "-f", path, "1", "nope")
	require.Error(t, err)
	assert.Equal(t, model.ExitPropertyNotFound, exitCode(err))
}

// TestSet_Scalar verifies an edit changes exactly its own line on disk.
func TestSet_Scalar(t *testing.T) {
	path := setup(t)

	_, err := run(t, "set", "-f", path, "1", "credits", "500")
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(fixture, `"credits": 120`, `"credits": 500`, 1), readFile(t, path))
}

// TestSet_Invalid verifies a rejected value leaves the file untouched.
func TestSet_Invalid(t *testing.T) {
	path := setup(t)

	_, err := run(t, "set", "-f", path, "1", "credits", "lots")
	require.Error(t, err)
	assert.Equal(t, model.ExitValidationFailed, exitCode(err))
	assert.Equal(t, fixture, readFile(t, path))

	_, err = run(t, "set", "-f", path, "1", "credits")
	require.Error(t, err, "no value source")

	_, err = run(t, "set", "-f", path, "1", "credits", "1", "--null")
	require.Error(t, err, "two value sources")
}

func TestSet_Distribution(t *testing.T) {
	path := setup(t)

	_, err := run(t, "set", "-f", path, "10", "publicOpinion", "--set", "Resistance=0.5")
	require.NoError(t, err)

	out, err := run(t, "get", "-f", path, "10", "publicOpinion")
	require.NoError(t, err)
	assert.Contains(t, out, `"Resistance": 0.5`)
	assert.Contains(t, out, `"Undecided": 0.2`)

	_, err = run(t, "set", "-f", path, "10", "publicOpinion", "--set", "Undecided=1")
	require.Error(t, err)
	assert.Equal(t, model.ExitValidationFailed, exitCode(err))
}

func TestSet_ReferenceList(t *testing.T) {
	path := setup(t)

	_, err := run(t, "set", "-f", path, "1", "allies", "2, 10")
	require.NoError(t, err)

	out, err := run(t, "show", "-f", path, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#2 Servants")
	assert.Contains(t, out, "#10 France")
	assert.NotContains(t, out, "#99")

	// An empty list has no reference shape to go by; it takes raw JSON.
	_, err = run(t, "set", "-f", path, "2", "allies", `[{"value": 1}]`)
	require.NoError(t, err)
	out, err = run(t, "show", "-f", path, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Resistance")
}

// TestSet_NullSaveAs writes the edit to a new compressed file and leaves
// the input alone.
func TestSet_NullSaveAs(t *testing.T) {
	path := setup(t)
	dest := filepath.Join(filepath.Dir(path), "Edited.json.gz")

	_, err := run(t, "set", "-f", path, "2", "displayName", "--null", "-o", dest)
	require.NoError(t, err)
	assert.Equal(t, fixture, readFile(t, path))

	f, err := savefile.Read(dest)
	require.NoError(t, err)
	assert.Equal(t, model.FormatGzip, f.Format)
	assert.Equal(t,
		strings.Replace(fixture, `"displayName": "Servants"`, `"displayName": null`, 1),
		string(f.Text))
}

func TestSet_DryRun(t *testing.T) {
	path := setup(t)

	out, err := run(t, "set", "-f", path, "1", "credits", "5", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.Equal(t, fixture, readFile(t, path))
}

func TestRef(t *testing.T) {
	path := setup(t)

	out, err := run(t, "ref", "-f", path, "10", "#99", "--json")
	require.NoError(t, err)

	var got struct {
		References []struct {
			ID          int64           `json:"id"`
			DisplayName string          `json:"displayName"`
			Found       bool            `json:"found"`
			Location    *model.Location `json:"location"`
		} `json:"references"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.References, 2)

	assert.Equal(t, "France", got.References[0].DisplayName)
	assert.True(t, got.References[0].Found)
	assert.Equal(t, &model.Location{Group: "PavonisInteractive.TerraInvicta.TINationState", Index: 0}, got.References[0].Location)

	assert.Equal(t, "<?~?~?>", got.References[1].DisplayName)
	assert.False(t, got.References[1].Found)
	assert.Nil(t, got.References[1].Location)
}

func TestCheck(t *testing.T) {
	path := setup(t)

	out, err := run(t, "check", "-f", path)
	require.NoError(t, err, "findings alone do not fail")
	assert.Contains(t, out, "reference to missing entity 99")

	_, err = run(t, "check", "-f", path, "--strict")
	require.Error(t, err)
	assert.Equal(t, model.ExitGeneralError, exitCode(err))
}

// TestFmt verifies a canonical save formats to itself and converts to gzip.
func TestFmt(t *testing.T) {
	path := setup(t)

	out, err := run(t, "fmt", path)
	require.NoError(t, err)
	assert.Equal(t, fixture+"\n", out)

	dest := filepath.Join(filepath.Dir(path), "out", "Autosave.gz")
	_, err = run(t, "fmt", "-f", path, "-o", dest)
	require.NoError(t, err)

	f, err := savefile.Read(dest)
	require.NoError(t, err)
	assert.Equal(t, model.FormatGzip, f.Format)
	assert.Equal(t, fixture, string(f.Text))
}

func TestSaves(t *testing.T) {
	path := setup(t)

	out, err := run(t, "saves", "--dir", filepath.Dir(path), "--json")
	require.NoError(t, err)

	var got struct {
		Dir   string           `json:"dir"`
		Saves []savefile.Entry `json:"saves"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Saves, 1)
	assert.Equal(t, "Autosave.json", got.Saves[0].Name)
	assert.Equal(t, path, got.Saves[0].Path)
}

func TestMissingFile(t *testing.T) {
	setup(t)

	_, err := run(t, "groups")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no save file given")

	_, err = run(t, "groups", "-f", filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.Equal(t, model.ExitIOError, exitCode(err))
}

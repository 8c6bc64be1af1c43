package savefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mmr-tortoise/tise/internal/model"
)

// Entry describes one save found on disk.
type Entry struct {
	Path    string           `json:"path"`
	Name    string           `json:"name"`
	Format  model.SaveFormat `json:"format"`
	Size    int64            `json:"size"`
	ModTime time.Time        `json:"modTime"`
}

// DefaultSaveDir returns the directory the game writes saves to:
// <home>/Documents/My Games/TerraInvicta/Saves. On Windows the home
// directory is %USERPROFILE%, elsewhere $HOME (Proton prefixes and
// synced folders usually mirror the same layout).
func DefaultSaveDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "My Games", "TerraInvicta", "Saves"), nil
}

// FindSaves lists the *.json and *.gz files directly inside dir, newest
// first. Ties on modification time are broken by name so the order is
// stable. Subdirectories are not descended into.
//
// Returns a CLIError with ExitIOError if dir cannot be read.
func FindSaves(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to read save directory %s", dir), err)
	}

	var saves []Entry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".gz" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// The file vanished between ReadDir and Info; skip it.
			continue
		}
		saves = append(saves, Entry{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Format:  TargetFormat(name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(saves, func(i, j int) bool {
		if !saves[i].ModTime.Equal(saves[j].ModTime) {
			return saves[i].ModTime.After(saves[j].ModTime)
		}
		return saves[i].Name < saves[j].Name
	})
	return saves, nil
}

package greenluma

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// injector file locations below the GreenLuma root
const (
	injectorINI = "NormalMode/DLLInjector.ini"
	injectorEXE = "NormalMode/DLLInjector.exe"
	injectorDLL = "NormalMode/GreenLuma_2025_x86.dll"
)

// InjectorEXEPath returns the DLL injector executable path for a GreenLuma
// root.
func InjectorEXEPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(injectorEXE))
}

// ConfigureInjector rewrites DLLInjector.ini so the injector launches the
// given Steam executable with the GreenLuma DLL, using full paths.
func (s *Store) ConfigureInjector(steamRoot, glRoot string) error {
	iniPath := filepath.Join(glRoot, filepath.FromSlash(injectorINI))
	if _, err := os.Stat(iniPath); err != nil {
		return fmt.Errorf("DLLInjector.ini not found: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(iniPath)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read DLLInjector.ini: %w", err)
	}

	v.Set("DLLInjector.UseFullPathsFromIni", "1")
	v.Set("DLLInjector.Exe", filepath.Join(steamRoot, "Steam.exe"))
	v.Set("DLLInjector.Dll", filepath.Join(glRoot, filepath.FromSlash(injectorDLL)))

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write DLLInjector.ini: %w", err)
	}
	s.log.Info("configured DLL injector", zap.String("ini", iniPath))
	return nil
}

// Validate checks that a GreenLuma installation has its core components
// and returns the missing ones. The AppList directory is created when
// absent, since this tool owns its contents anyway.
func (s *Store) Validate(root string) (missing []string, err error) {
	if fi, statErr := os.Stat(root); statErr != nil || !fi.IsDir() {
		return []string{"base_directory"}, nil
	}

	required := map[string]string{
		"NormalMode":      "NormalMode",
		"DLLInjector.exe": injectorEXE,
		"DLLInjector.ini": injectorINI,
		"GreenLuma_x86":   injectorDLL,
		"GreenLuma_x64":   "NormalMode/GreenLuma_2025_x64.dll",
	}
	for name, rel := range required {
		if _, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); statErr != nil {
			missing = append(missing, name)
		}
	}

	if mkErr := os.MkdirAll(appListPath(root), 0755); mkErr != nil {
		return missing, fmt.Errorf("failed to create AppList directory: %w", mkErr)
	}
	return missing, nil
}

// DirStats categorizes the current AppList contents against the ledger's
// view: markers matching installed AppIDs, markers matching tracked depot
// IDs, and everything else (legacy or externally added entries).
type DirStats struct {
	TotalFiles int
	AppIDs     int
	Depots     int
	Other      int
}

// Stats scans the AppList and categorizes each marker using the supplied
// installed-app and depot ID sets.
func (s *Store) Stats(root string, installedAppIDs, depotIDs []string) (DirStats, error) {
	var stats DirStats

	dir := appListPath(root)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return stats, nil
	}

	apps := map[string]bool{}
	for _, id := range installedAppIDs {
		apps[id] = true
	}
	depots := map[string]bool{}
	for _, id := range depotIDs {
		depots[id] = true
	}

	files, err := sortedMarkerFiles(dir)
	if err != nil {
		return stats, err
	}
	stats.TotalFiles = len(files)
	for _, f := range files {
		content, err := readMarker(filepath.Join(dir, f))
		switch {
		case err != nil || !isDigits(content):
			stats.Other++
		case apps[content]:
			stats.AppIDs++
		case depots[content]:
			stats.Depots++
		default:
			stats.Other++
		}
	}
	return stats, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Package lua extracts depot declarations from the .lua scripts that ship
// alongside a game's install data. Only two call forms matter, addappid
// and adddepot, each with or without a quoted decryption key, so a line
// scanner with a small pattern table is enough; this is not a Lua
// interpreter and must never become one.
package lua

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steam"
)

// Declaration is the parsed content of one .lua file: the AppID taken
// from the filename stem and every depot declared inside.
type Declaration struct {
	AppID  string
	Depots []steam.Depot
}

type luaPattern struct {
	re     *regexp.Regexp
	hasKey bool
}

// Ordered by specificity. A line is consumed by the first matching
// pattern, so keyed forms must come before their keyless variants.
var patterns = []luaPattern{
	{regexp.MustCompile(`^\s*adddepot\((\d+),\s*"([a-zA-Z0-9]+)"\)`), true},
	{regexp.MustCompile(`^\s*adddepot\((\d+)\)`), false},
	{regexp.MustCompile(`^\s*addappid\((\d+),\s*1,\s*"([a-zA-Z0-9]+)"\)`), true},
	{regexp.MustCompile(`^\s*addappid\((\d+),?\s*[^,\)]*\)`), false},
}

// ParseDeclaration reads a .lua file and returns its AppID and depot set.
// The AppID comes from the numeric filename stem; IDs inside the file
// equal to it are the app's own entry, not depots, and are skipped.
// Duplicate depot IDs collapse into one entry, and a later keyed mention
// backfills the key on an earlier keyless one.
func ParseDeclaration(path string) (Declaration, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	decl := Declaration{AppID: stem}
	if !steam.ValidAppID(stem) {
		return decl, fmt.Errorf("filename %q is not a numeric AppID", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return decl, fmt.Errorf("failed to open declaration: %w", err)
	}
	defer f.Close()

	index := map[string]int{} // depot ID to position in decl.Depots
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, p := range patterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			id := m[1]
			if id == decl.AppID {
				break
			}
			key := ""
			if p.hasKey && len(m) > 2 {
				key = m[2]
			}
			if i, seen := index[id]; seen {
				if key != "" {
					decl.Depots[i].Key = key
				}
			} else {
				index[id] = len(decl.Depots)
				decl.Depots = append(decl.Depots, steam.Depot{ID: id, Key: key})
			}
			break
		}
	}
	if err := sc.Err(); err != nil {
		return decl, fmt.Errorf("failed to read declaration: %w", err)
	}
	return decl, nil
}

// FindDeclaration locates the .lua file for an AppID inside its data
// folder. The canonical name is <app_id>.lua; if that exact file is
// missing, any single .lua file in the folder is accepted.
func FindDeclaration(appDir, appID string) (string, error) {
	canonical := filepath.Join(appDir, appID+".lua")
	if _, err := os.Stat(canonical); err == nil {
		return canonical, nil
	}
	matches, err := filepath.Glob(filepath.Join(appDir, "*.lua"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no .lua declaration found in %s", appDir)
	}
	return matches[0], nil
}

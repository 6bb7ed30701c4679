// Package steam holds the domain types shared by the ledger, the external
// stores, and the reconciliation engine.
package steam

import (
	"regexp"
	"time"
)

// Depot is one content unit of an app. Key is the hex decryption key, or
// empty when the depot is free or the key is unknown. Keyless depots are
// never written to Steam's config.vdf.
type Depot struct {
	ID  string
	Key string
}

// HasKey reports whether the depot carries a decryption key.
func (d Depot) HasKey() bool {
	return d.Key != ""
}

// FilterKeyed returns only the depots that carry a decryption key.
func FilterKeyed(depots []Depot) []Depot {
	var keyed []Depot
	for _, d := range depots {
		if d.HasKey() {
			keyed = append(keyed, d)
		}
	}
	return keyed
}

// DepotIDs returns the IDs of the given depots, in order.
func DepotIDs(depots []Depot) []string {
	ids := make([]string, len(depots))
	for i, d := range depots {
		ids[i] = d.ID
	}
	return ids
}

// AppDepot is a depot joined with its owning app, as returned by the
// ledger's cross-app queries.
type AppDepot struct {
	AppID   string
	DepotID string
	Key     string
}

// Game is an installed app as recorded in the ledger.
type Game struct {
	AppID       string
	Name        string
	DateAdded   time.Time
	LastUpdated time.Time
	Installed   bool
}

var appIDPattern = regexp.MustCompile(`^\d+$`)

// ValidAppID reports whether s is a well-formed numeric AppID.
func ValidAppID(s string) bool {
	return appIDPattern.MatchString(s)
}

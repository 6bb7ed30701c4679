package store

// Stats summarizes the ledger contents.
type Stats struct {
	TotalApps     int
	InstalledApps int
	TotalDepots   int
	DepotsWithKey int
	Manifests     int
}

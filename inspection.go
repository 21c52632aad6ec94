package metaverify

import "context"

// Inspection is the outcome of inspecting one user-supplied address.
type Inspection struct {
	// RequestedURL is the normalized address that was fetched.
	RequestedURL string

	// URL is the final address after redirects.
	URL string

	ContentType string

	Result *ExtractionResult
}

// Inspector normalizes an address, fetches it and extracts its metadata.
type Inspector interface {
	// Inspect performs exactly one fetch. Invalid addresses are rejected with
	// EINVALID before any network activity.
	Inspect(ctx context.Context, rawURL string) (*Inspection, error)
}

// ReportStore persists inspections for later comparison.
type ReportStore interface {
	// Save writes the inspection and returns where it was stored. A later
	// inspection of the same address replaces the earlier report.
	Save(ctx context.Context, inspection *Inspection) (string, error)
}

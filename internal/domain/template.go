package domain

// TemplateCandidate is a stored poster design eligible for selection when the
// user supplied no reference image. Candidates are read-only within a request;
// relevance scores are request-scoped and never persisted.
type TemplateCandidate struct {
	StoragePath string
	Domain      string
	Description string
	Tags        []string
}

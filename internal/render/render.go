// Package render obtains the HTML of a share page. Three interchangeable
// backends implement one contract; the ingestion orchestrator depends
// only on the contract, never on backend identity.
package render

import "context"

// Renderer fetches the fully rendered HTML for a URL. Implementations
// must honor ctx cancellation, bound every network or browser wait with
// a timeout, and release any session resources on every exit path.
type Renderer interface {
	Name() string
	Render(ctx context.Context, url string) (string, error)
}

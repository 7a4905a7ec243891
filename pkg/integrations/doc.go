// Package integrations provides HTTP clients for the remote services that
// enrich canvas nodes.
//
// # Overview
//
// Each service has its own subpackage:
//
//   - [youcom]: web search for Research nodes
//   - [pollinations]: image generation for Visual nodes
//   - [openrouter]: LLM completions for Concept nodes
//   - [foxit]: HTML to PDF conversion for Export nodes
//
// # Client Pattern
//
// All clients embed [Client] and follow the same shape:
//
//	c := youcom.NewClient(backend, apiKey, time.Hour)
//	res, err := c.Search(ctx, "lighthouse history", false) // false = use cache
//
// [Client] handles:
//   - default headers and context-aware requests
//   - retry with backoff for transient failures ([httputil.Retry])
//   - status mapping to coded errors ([httputil.CheckStatus])
//   - response caching through any [cache.Cache] backend
//   - HTTP and cache events for [observability]
//
// Every subpackage also offers a deterministic Mock for when credentials
// are missing or the remote fails, so the canvas always gets an answer.
//
// [youcom]: github.com/matzehuels/storyboard/pkg/integrations/youcom
// [pollinations]: github.com/matzehuels/storyboard/pkg/integrations/pollinations
// [openrouter]: github.com/matzehuels/storyboard/pkg/integrations/openrouter
// [foxit]: github.com/matzehuels/storyboard/pkg/integrations/foxit
// [httputil.Retry]: github.com/matzehuels/storyboard/pkg/httputil#Retry
// [httputil.CheckStatus]: github.com/matzehuels/storyboard/pkg/httputil#CheckStatus
// [cache.Cache]: github.com/matzehuels/storyboard/pkg/cache#Cache
// [observability]: github.com/matzehuels/storyboard/pkg/observability
package integrations

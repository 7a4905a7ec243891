// Package enrich runs the four remote operations behind canvas nodes
// against the real services, falling back to deterministic mocks whenever a
// credential is missing or a remote fails. The canvas therefore always gets
// an answer.
//
// The proxy server exposes a Service over HTTP; the CLI can also call one
// in-process when no proxy is configured.
package enrich

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/integrations/foxit"
	"github.com/matzehuels/storyboard/pkg/integrations/openrouter"
	"github.com/matzehuels/storyboard/pkg/integrations/pollinations"
	"github.com/matzehuels/storyboard/pkg/integrations/youcom"
	"github.com/matzehuels/storyboard/pkg/store"
)

// SearchHits is how many hits a Research node shows.
const SearchHits = 3

// Credentials holds the API keys of the remote services. Missing keys
// select the mock for that service.
type Credentials struct {
	YouComKey     string
	OpenRouterKey string
	FoxitID       string
	FoxitSecret   string
}

// Clients bundles one client per service.
type Clients struct {
	Search *youcom.Client
	Images *pollinations.Client
	LLM    *openrouter.Client
	PDF    *foxit.Client
}

// NewClients builds production clients sharing one response cache. A nil
// keyer selects the default.
func NewClients(creds Credentials, backend cache.Cache, ttl time.Duration, keyer cache.Keyer) Clients {
	c := Clients{
		Search: youcom.NewClient(backend, creds.YouComKey, ttl),
		Images: pollinations.NewClient(backend, ttl),
		LLM:    openrouter.NewClient(backend, creds.OpenRouterKey, ttl),
		PDF:    foxit.NewClient(creds.FoxitID, creds.FoxitSecret),
	}
	c.Search.SetKeyer(keyer)
	c.Images.SetKeyer(keyer)
	c.LLM.SetKeyer(keyer)
	return c
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for fallback warnings.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReports stores every export in st.
func WithReports(st store.Store) Option {
	return func(s *Service) { s.reports = st }
}

// Offline skips every remote call and answers with mocks only.
func Offline() Option {
	return func(s *Service) { s.offline = true }
}

// Service performs enrichment operations. It is safe for concurrent use.
type Service struct {
	clients Clients
	reports store.Store
	offline bool
	logger  *log.Logger
}

// New creates a Service. Nil clients are treated as unavailable.
func New(clients Clients, opts ...Option) *Service {
	s := &Service{
		clients: clients,
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fallback decides whether err should be answered with a mock. Input
// validation errors and cancellation are returned to the caller.
func (s *Service) fallback(ctx context.Context, op string, err error) bool {
	if ctx.Err() != nil || errors.Is(err, errors.ErrCodeInvalidInput) {
		return false
	}
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		s.logger.Warn("remote failed, using mock", "op", op, "error", err)
	}
	return true
}

// SearchResult runs query through You.com, or returns the mock result.
func (s *Service) SearchResult(ctx context.Context, query string) (*youcom.SearchResult, error) {
	if err := errors.ValidateQuery(query); err != nil {
		return nil, err
	}
	if s.offline || s.clients.Search == nil {
		return youcom.Mock(query), nil
	}
	res, err := s.clients.Search.Search(ctx, query, false)
	if err != nil {
		if !s.fallback(ctx, "search", err) {
			return nil, err
		}
		return youcom.Mock(query), nil
	}
	return res, nil
}

// Search returns the text a Research node shows for query.
func (s *Service) Search(ctx context.Context, query string) (string, error) {
	res, err := s.SearchResult(ctx, query)
	if err != nil {
		return "", err
	}
	return res.Text(SearchHits), nil
}

// Visualize returns encoded image bytes for prompt. Offline, and when both
// the generator and its fallback fail, a generated placeholder PNG is
// returned.
func (s *Service) Visualize(ctx context.Context, prompt string) ([]byte, error) {
	if err := errors.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	placeholder := func() []byte {
		return pollinations.Placeholder(prompt, pollinations.DefaultWidth/4, pollinations.DefaultHeight/4)
	}
	if s.offline || s.clients.Images == nil {
		return placeholder(), nil
	}
	img, err := s.clients.Images.Generate(ctx, prompt, false)
	if err != nil {
		if !s.fallback(ctx, "visualize", err) {
			return nil, err
		}
		return placeholder(), nil
	}
	return img.Data, nil
}

// Complete sends prompt to model, or returns the mock scene.
func (s *Service) Complete(ctx context.Context, model, prompt string) (string, error) {
	if err := errors.ValidateModel(model); err != nil {
		return "", err
	}
	if err := errors.ValidatePrompt(prompt); err != nil {
		return "", err
	}
	if s.offline || s.clients.LLM == nil {
		return openrouter.Mock(model, prompt), nil
	}
	out, err := s.clients.LLM.Complete(ctx, model, prompt, false)
	if err != nil {
		if !s.fallback(ctx, "complete", err) {
			return "", err
		}
		return openrouter.Mock(model, prompt), nil
	}
	return out, nil
}

// Expand turns concept text into a storyboard scene with model.
func (s *Service) Expand(ctx context.Context, model, concept string) (string, error) {
	if err := errors.ValidatePrompt(concept); err != nil {
		return "", err
	}
	return s.Complete(ctx, model, openrouter.ScenePrompt(concept))
}

// Export saves report, starts its PDF conversion and returns the status
// text the Export node shows.
func (s *Service) Export(ctx context.Context, report string) (string, error) {
	if err := errors.ValidateReport(report); err != nil {
		return "", err
	}
	rep := store.NewReport("StoryBoard Report", report)
	short := rep.ID[:8]

	status := fmt.Sprintf("%s, report %s", foxit.MockStatus, short)
	rep.Status = store.StatusOffline
	if !s.offline && s.clients.PDF != nil && s.clients.PDF.Configured() {
		task, err := s.clients.PDF.Convert(ctx, foxit.ReportHTML(rep.Title, report))
		switch {
		case err == nil:
			rep.Status = store.StatusConverting
			rep.TaskID = task.TaskID
			rep.DocumentID = task.DocumentID
			status = fmt.Sprintf("PDF generation started (report %s)", short)
		case !s.fallback(ctx, "export", err):
			return "", err
		default:
			rep.Status = store.StatusFailed
			status = fmt.Sprintf("Report %s saved (PDF failed)", short)
		}
	}

	if s.reports != nil {
		rep.UpdatedAt = time.Now().UTC()
		if err := s.reports.Save(ctx, rep); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "save report")
		}
	}
	return status, nil
}

// Reports returns the report store, or nil.
func (s *Service) Reports() store.Store { return s.reports }

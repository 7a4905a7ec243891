package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/matzehuels/storyboard/pkg/enrich"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/integrations"
	"github.com/matzehuels/storyboard/pkg/integrations/youcom"
)

// Proxy is a Backend that forwards operations to a storyboard server, which
// holds the API keys. Results are not cached here; the server caches.
type Proxy struct {
	*integrations.Client
	baseURL string
}

var _ Backend = (*Proxy)(nil)

// NewProxy creates a Proxy for the server at baseURL, for example
// "http://localhost:8033".
func NewProxy(baseURL string) (*Proxy, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	return &Proxy{
		Client:  integrations.NewClient(nil, "proxy", 0, nil),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Search calls POST /api/research and renders the hits.
func (p *Proxy) Search(ctx context.Context, query string) (string, error) {
	var res youcom.SearchResult
	if err := p.PostJSON(ctx, p.baseURL+"/api/research", nil, enrich.SearchRequest{Query: query}, &res); err != nil {
		return "", err
	}
	return res.Text(enrich.SearchHits), nil
}

// Visualize calls POST /api/visualize and returns the image bytes.
func (p *Proxy) Visualize(ctx context.Context, prompt string) ([]byte, error) {
	return p.post(ctx, "/api/visualize", enrich.VisualizeRequest{Prompt: prompt}, integrations.MaxImageBytes)
}

// Expand calls POST /api/expand.
func (p *Proxy) Expand(ctx context.Context, model, concept string) (string, error) {
	out, err := p.post(ctx, "/api/expand", enrich.ExpandRequest{Model: model, Concept: concept}, maxTextBytes)
	return string(out), err
}

// Export calls POST /api/export and returns the status text.
func (p *Proxy) Export(ctx context.Context, report string) (string, error) {
	out, err := p.post(ctx, "/api/export", enrich.ExportRequest{Report: report}, maxTextBytes)
	return string(out), err
}

const maxTextBytes = 1 << 20

func (p *Proxy) post(ctx context.Context, path string, in any, limit int64) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "proxy: encode request")
	}
	body, err := p.Do(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data),
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return nil, err
	}
	defer body.Close()
	out, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "proxy: read %s", path)
	}
	if int64(len(out)) > limit {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "proxy: %s response larger than %d bytes", path, limit)
	}
	return out, nil
}

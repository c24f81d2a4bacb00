package careerdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/careerdex/internal/app"
	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/ingest/loader"
	"github.com/kailas-cloud/careerdex/internal/usecase/bootstrap"
	"github.com/kailas-cloud/careerdex/internal/usecase/health"
	"github.com/kailas-cloud/careerdex/internal/usecase/tool"
)

// Tool call inputs and status envelopes.
type (
	SearchInput     = tool.SearchInput
	SearchResponse  = tool.SearchResponse
	IndexInput      = tool.IndexInput
	IndexResponse   = tool.IndexResponse
	SimilarInput    = tool.SimilarInput
	SimilarResponse = tool.SimilarResponse
	SkillsResponse  = tool.SkillsResponse
	ResultView      = tool.ResultView
)

// Envelope statuses.
const (
	StatusSuccess = tool.StatusSuccess
	StatusError   = tool.StatusError
)

// Outcome reports how loading one data kind went.
type Outcome struct {
	Kind       string
	Collection string
	Documents  int
	Chunks     int
	Err        error
}

// Status is the per-collection record count.
type Status struct {
	Counts    map[string]int
	Populated bool
}

// HealthReport is the outcome of a health check.
type HealthReport struct {
	Healthy bool
	Checks  map[string]string
}

// Client is an in-process careerdex engine.
type Client struct {
	app *app.App
	obs *observer
}

// New opens the store, creates the collections and returns a ready client.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	cfg := cc.cfg
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("careerdex: %w", err)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	var provider domain.Embedder
	if cc.embedder != nil {
		provider = adaptEmbedder(cc.embedder)
	}
	a, err := app.NewWithProvider(ctx, cfg, provider, cc.logger)
	if err != nil {
		return nil, fmt.Errorf("careerdex: %w", err)
	}
	if err := a.Bootstrap.EnsureCollections(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("careerdex: %w", err)
	}

	return &Client{app: a, obs: obs}, nil
}

// SearchExperience runs a semantic search over one collection.
func (c *Client) SearchExperience(ctx context.Context, in SearchInput) SearchResponse {
	start := time.Now()
	resp := c.app.Tools.SearchExperience(ctx, in)
	c.obs.observe(tool.OpSearch, start, failed(resp.Status, resp.Message))
	return resp
}

// IndexDocuments chunks, embeds and stores documents.
func (c *Client) IndexDocuments(ctx context.Context, in IndexInput) IndexResponse {
	start := time.Now()
	resp := c.app.Tools.IndexDocuments(ctx, in)
	c.obs.observe(tool.OpIndex, start, failed(resp.Status, resp.Message))
	return resp
}

// SimilarProjects finds projects close to the named one.
func (c *Client) SimilarProjects(ctx context.Context, in SimilarInput) SimilarResponse {
	start := time.Now()
	resp := c.app.Tools.GetSimilarProjects(ctx, in)
	c.obs.observe(tool.OpSimilar, start, failed(resp.Status, resp.Message))
	return resp
}

// AnalyzeSkills aggregates skills over experience and projects.
func (c *Client) AnalyzeSkills(ctx context.Context) SkillsResponse {
	start := time.Now()
	resp := c.app.Tools.AnalyzeSkills(ctx)
	c.obs.observe(tool.OpSkills, start, failed(resp.Status, resp.Message))
	return resp
}

// Init loads every data kind unless the store is already populated.
// The bool reports whether anything was loaded.
func (c *Client) Init(ctx context.Context, force bool) ([]Outcome, bool, error) {
	start := time.Now()
	outcomes, loaded, err := c.app.Bootstrap.Init(ctx, force, nil)
	c.obs.observe("init", start, err)
	return convertOutcomes(outcomes), loaded, err
}

// Load indexes the given kinds (work_history, projects, skills). No kinds means all.
func (c *Client) Load(ctx context.Context, kinds ...string) ([]Outcome, error) {
	parsed := make([]loader.Kind, 0, len(kinds))
	for _, k := range kinds {
		kind, err := loader.ParseKind(k)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, kind)
	}
	if len(parsed) == 0 {
		parsed = loader.Kinds()
	}

	start := time.Now()
	outcomes := c.app.Bootstrap.Load(ctx, parsed, nil)
	var err error
	if n := bootstrap.Failed(outcomes); n > 0 {
		err = fmt.Errorf("%d of %d kinds failed", n, len(outcomes))
	}
	c.obs.observe("load", start, err)
	return convertOutcomes(outcomes), nil
}

// Status reports per-collection counts.
func (c *Client) Status(ctx context.Context) (Status, error) {
	st, err := c.app.Bootstrap.Status(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Counts: st.Counts, Populated: st.Populated}, nil
}

// Health checks the store, the embedding provider and the collections.
func (c *Client) Health(ctx context.Context) HealthReport {
	r := c.app.Health.Check(ctx)
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthReport{Healthy: r.Status == health.Healthy, Checks: checks}
}

// Close releases the store.
func (c *Client) Close() error {
	if c == nil || c.app == nil {
		return errors.New("careerdex: client not initialized")
	}
	return c.app.Close()
}

func convertOutcomes(in []bootstrap.Outcome) []Outcome {
	out := make([]Outcome, len(in))
	for i, o := range in {
		out[i] = Outcome{
			Kind:       string(o.Kind),
			Collection: o.Collection,
			Documents:  o.Documents,
			Chunks:     o.Chunks,
			Err:        o.Err,
		}
	}
	return out
}

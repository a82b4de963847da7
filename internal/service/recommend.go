package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"laptopadvisor/internal/estimator"
	"laptopadvisor/internal/features"
	"laptopadvisor/internal/ingest"
	"laptopadvisor/internal/logging"
	"laptopadvisor/internal/metrics"
	"laptopadvisor/internal/model"
)

// State is the lifecycle state of the recommendation service
type State string

// Service states. Ingestion moves any state to Loaded. A successful training
// run passes through Trained to Ready in a single snapshot swap, so queries
// never observe Trained and a retrained service stays Ready throughout.
const (
	StateEmpty   State = "empty"
	StateLoaded  State = "loaded"
	StateTrained State = "trained"
	StateReady   State = "ready"
)

// Format identifies a catalog file format
type Format string

// Supported catalog formats
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// persistTimeout bounds background writes to the store
const persistTimeout = 10 * time.Second

// Config holds recommendation service settings
type Config struct {
	DefaultTopK    int
	MaxTopK        int
	CandidateLimit int
	TrainingLimit  int
	Strategy       features.Strategy
	Estimator      estimator.Config
	TrainTimeout   time.Duration
	Workers        int
	Weights        Weights
	TieEpsilon     float64
	CacheTTL       time.Duration
	CacheCleanup   time.Duration
	Extractor      ingest.ExtractorConfig
	Delimiter      rune
}

// DefaultConfig returns the default service settings
func DefaultConfig() Config {
	return Config{
		DefaultTopK:    5,
		MaxTopK:        50,
		CandidateLimit: 200,
		TrainingLimit:  600,
		Strategy:       features.StrategyZScore,
		Estimator:      estimator.DefaultConfig(),
		TrainTimeout:   2 * time.Minute,
		Workers:        4,
		Weights:        DefaultWeights(),
		TieEpsilon:     DefaultTieEpsilon,
		CacheTTL:       10 * time.Minute,
		CacheCleanup:   time.Minute,
		Extractor:      ingest.ExtractorConfig{MaxItems: ingest.DefaultMaxItems},
		Delimiter:      ingest.DefaultDelimiter,
	}
}

// Catalog is an immutable catalog snapshot
type Catalog struct {
	Version  int64
	Laptops  []model.Laptop
	LoadedAt time.Time
	index    map[string]int
}

func newCatalog(version int64, laptops []model.Laptop) *Catalog {
	c := &Catalog{
		Version:  version,
		Laptops:  laptops,
		LoadedAt: time.Now(),
		index:    make(map[string]int, len(laptops)),
	}
	for i, l := range laptops {
		c.index[l.ID] = i
	}
	return c
}

// Get returns a laptop by ID
func (c *Catalog) Get(id string) (model.Laptop, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Laptop{}, false
	}
	return c.Laptops[i], true
}

// Model binds normalization params to the estimator trained with them, so a
// query is never normalized with another run's statistics
type Model struct {
	Version        int64
	RunID          string
	CatalogVersion int64
	TrainedAt      time.Time
	Params         *features.Params
	Estimator      estimator.Estimator
	Report         *estimator.Report
}

// PredictRating returns the predicted rating of a raw feature vector on the 0-5 scale
func (m *Model) PredictRating(v model.FeatureVector) (float64, error) {
	p, err := m.Estimator.Predict(m.Params.Apply(v).Slice())
	if err != nil {
		return 0, err
	}
	return p * 5, nil
}

type snapshot struct {
	state   State
	catalog *Catalog
	model   *Model
}

// RecommendEventCallback is called for streaming recommendation events
type RecommendEventCallback func(event string, data any) error

// RecommendationService owns the catalog, the trained model and the lifecycle
// between them. Reads never block: every query works on one immutable snapshot.
type RecommendationService struct {
	cfg       Config
	store     Store
	ranker    *Ranker
	parser    *ingest.Parser
	extractor *ingest.Extractor
	cache     *cache.Cache
	logger    zerolog.Logger

	snap       atomic.Pointer[snapshot]
	trainMu    sync.Mutex
	training   atomic.Bool
	catalogSeq atomic.Int64
	modelSeq   atomic.Int64

	statusMu sync.RWMutex
	lastErr  string
	lastRun  *model.TrainingRun

	background sync.WaitGroup
}

// NewRecommendationService creates a service in the Empty state. store may be nil.
func NewRecommendationService(cfg Config, store Store, logger zerolog.Logger) *RecommendationService {
	def := DefaultConfig()
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = def.DefaultTopK
	}
	if cfg.MaxTopK < cfg.DefaultTopK {
		cfg.MaxTopK = cfg.DefaultTopK
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.CacheCleanup <= 0 {
		cfg.CacheCleanup = def.CacheCleanup
	}

	s := &RecommendationService{
		cfg:       cfg,
		store:     store,
		ranker:    NewRanker(cfg.Weights, cfg.TieEpsilon),
		parser:    ingest.NewParser(cfg.Delimiter),
		extractor: ingest.NewExtractor(cfg.Extractor, logging.Component(logger, "extractor")),
		cache:     cache.New(cfg.CacheTTL, cfg.CacheCleanup),
		logger:    logging.Component(logger, "recommender"),
	}
	s.snap.Store(&snapshot{state: StateEmpty})
	return s
}

// State returns the current lifecycle state
func (s *RecommendationService) State() State {
	return s.snap.Load().state
}

// Wait blocks until background persistence has finished
func (s *RecommendationService) Wait() {
	s.background.Wait()
}

// Ingest parses a catalog file and replaces the current catalog. The trained
// model is discarded, so the service returns to Loaded until retrained.
func (s *RecommendationService) Ingest(ctx context.Context, r io.Reader, format Format) (*model.IngestResponse, error) {
	startTime := time.Now()

	var (
		table *ingest.Table
		err   error
	)
	switch format {
	case FormatXLSX:
		table, err = ingest.ParseXLSX(r)
	case FormatCSV, "":
		table, err = s.parser.Parse(r)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for _, w := range table.Warnings {
		s.logger.Warn().Int("line", w.Line).Str("reason", w.Reason).Msg("catalog row skipped")
	}

	result := s.extractor.Extract(table)
	metrics.RecordIngest(result.Accepted, result.Rejected, len(table.Warnings), len(result.Laptops))

	if len(result.Laptops) == 0 {
		return nil, fmt.Errorf("%w: %d rows, %d rejected, %d skipped",
			ErrEmptyCatalog, table.TotalRows, result.Rejected, len(table.Warnings))
	}

	version := s.publishCatalog(result.Laptops, s.catalogSeq.Add(1))
	s.persistCatalog(ctx, version, result.Laptops)

	s.logger.Info().
		Int64("catalog_version", version).
		Int("rows", table.TotalRows).
		Int("accepted", result.Accepted).
		Int("rejected", result.Rejected).
		Int("skipped", len(table.Warnings)).
		Int("kept", len(result.Laptops)).
		Msg("catalog ingested")

	return &model.IngestResponse{
		CatalogVersion: version,
		TotalRows:      table.TotalRows,
		Accepted:       result.Accepted,
		Rejected:       result.Rejected,
		Kept:           len(result.Laptops),
		Warnings:       table.Warnings,
		RejectedBy:     result.RejectedBy,
		State:          string(StateLoaded),
		Took:           time.Since(startTime).Milliseconds(),
	}, nil
}

// LoadLaptops publishes already validated laptops, such as the built-in
// sample catalog, as a new catalog version
func (s *RecommendationService) LoadLaptops(ctx context.Context, laptops []model.Laptop) (int64, error) {
	if len(laptops) == 0 {
		return 0, ErrEmptyCatalog
	}
	kept := ingest.RankByConfidence(append([]model.Laptop(nil), laptops...), s.cfg.Extractor.MaxItems)
	version := s.publishCatalog(kept, s.catalogSeq.Add(1))
	s.persistCatalog(ctx, version, kept)
	return version, nil
}

// LoadFromStore restores the latest stored catalog. It reports false when no
// store is configured or the store holds no catalog.
func (s *RecommendationService) LoadFromStore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	version, laptops, err := s.store.LoadCatalog(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load stored catalog: %w", err)
	}
	if version == 0 || len(laptops) == 0 {
		return false, nil
	}

	// Keep versions monotonic across restarts
	for {
		cur := s.catalogSeq.Load()
		if cur >= version || s.catalogSeq.CompareAndSwap(cur, version) {
			break
		}
	}
	s.publishCatalog(ingest.RankByConfidence(laptops, s.cfg.Extractor.MaxItems), version)
	return true, nil
}

func (s *RecommendationService) publishCatalog(laptops []model.Laptop, version int64) int64 {
	s.snap.Store(&snapshot{state: StateLoaded, catalog: newCatalog(version, laptops)})
	s.cache.Flush()
	metrics.CatalogSize.Set(float64(len(laptops)))
	return version
}

func (s *RecommendationService) persistCatalog(ctx context.Context, version int64, laptops []model.Laptop) {
	if s.store == nil {
		return
	}
	if err := s.store.ReplaceCatalog(ctx, version, laptops); err != nil {
		s.logger.Warn().Err(err).Int64("catalog_version", version).Msg("failed to persist catalog")
	}
}

// Train fits normalization params and a fresh estimator on the current
// catalog and publishes them together. Only one run may be in flight;
// concurrent requests fail with ErrConcurrentTraining. On any error the
// previously published model stays in place.
func (s *RecommendationService) Train(ctx context.Context) (*model.TrainingRun, error) {
	if !s.trainMu.TryLock() {
		metrics.RecordTraining("rejected", 0, 0, 0)
		return nil, ErrConcurrentTraining
	}
	defer s.trainMu.Unlock()

	s.training.Store(true)
	defer s.training.Store(false)

	run, err := s.train(ctx)
	s.statusMu.Lock()
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
		s.lastRun = run
	}
	s.statusMu.Unlock()

	switch {
	case err == nil:
		metrics.RecordTraining("success", run.Duration, run.FinalValLoss, run.ModelVersion)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		metrics.RecordTraining("aborted", 0, 0, 0)
	default:
		metrics.RecordTraining("failure", 0, 0, 0)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("training failed")
	}
	return run, err
}

func (s *RecommendationService) train(ctx context.Context) (*model.TrainingRun, error) {
	startTime := time.Now()

	base := s.snap.Load()
	if base.catalog == nil || len(base.catalog.Laptops) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailure, ErrEmptyCatalog)
	}

	if s.cfg.TrainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TrainTimeout)
		defer cancel()
	}

	items := base.catalog.Laptops
	if s.cfg.TrainingLimit > 0 && len(items) > s.cfg.TrainingLimit {
		items = items[:s.cfg.TrainingLimit]
	}

	vectors := make([]model.FeatureVector, len(items))
	labels := make([]float64, len(items))
	for i, l := range items {
		vectors[i] = l.Features
		labels[i] = l.Rating / 5
	}

	params, err := features.Fit(s.cfg.Strategy, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailure, err)
	}

	X := make([][]float64, len(vectors))
	for i, v := range params.ApplyAll(vectors) {
		X[i] = v.Slice()
	}

	est, err := estimator.New(s.cfg.Estimator, logging.Component(s.logger, "estimator"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailure, err)
	}

	s.logger.Info().
		Str("estimator", est.Name()).
		Str("strategy", string(params.Strategy())).
		Int("items", len(items)).
		Int64("catalog_version", base.catalog.Version).
		Msg("training started")

	report, err := est.Train(ctx, X, labels)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("training aborted: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailure, err)
	}

	m := &Model{
		Version:        s.modelSeq.Add(1),
		RunID:          uuid.New().String(),
		CatalogVersion: base.catalog.Version,
		TrainedAt:      time.Now(),
		Params:         params,
		Estimator:      est,
		Report:         report,
	}

	// Warm-up prediction before the model becomes visible
	if _, err := m.PredictRating(items[0].Features); err != nil {
		return nil, fmt.Errorf("%w: warm-up prediction: %w", ErrTrainingFailure, err)
	}

	s.logger.Debug().Int64("model_version", m.Version).Str("state", string(StateTrained)).Msg("model trained")
	ready := &snapshot{state: StateReady, catalog: base.catalog, model: m}
	if !s.snap.CompareAndSwap(base, ready) {
		return nil, fmt.Errorf("%w: catalog replaced during training", ErrTrainingFailure)
	}
	// Entries are keyed by model version; older ones can no longer be hit
	s.cache.Flush()

	run := &model.TrainingRun{
		ID:              m.RunID,
		ModelVersion:    m.Version,
		Estimator:       est.Name(),
		Strategy:        string(params.Strategy()),
		TrainSize:       report.TrainSize,
		ValidationSize:  report.ValidationSize,
		FinalLoss:       report.FinalLoss,
		FinalValLoss:    report.FinalValLoss,
		History:         report.History,
		Duration:        time.Since(startTime),
		TrainedAt:       m.TrainedAt,
		CatalogVersion:  base.catalog.Version,
		NormalizedItems: len(items),
	}

	s.logger.Info().
		Int64("model_version", m.Version).
		Str("run_id", m.RunID).
		Float64("loss", report.FinalLoss).
		Float64("val_loss", report.FinalValLoss).
		Dur("took", run.Duration).
		Msg("training completed")

	s.persistTrainingRun(run, base.catalog, params)
	return run, nil
}

func (s *RecommendationService) persistTrainingRun(run *model.TrainingRun, catalog *Catalog, params *features.Params) {
	if s.store == nil {
		return
	}
	normalized := make(map[string]model.FeatureVector, len(catalog.Laptops))
	for _, l := range catalog.Laptops {
		normalized[l.ID] = params.Apply(l.Features)
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.store.SaveTrainingRun(ctx, run, normalized); err != nil {
			s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to persist training run")
		}
	}()
}

// queryBounds are the accepted upper limits of each query feature
var queryBounds = [model.FeatureCount]float64{1e7, 1024, 65536, 30, 48, 20, 10}

// ValidateQuery converts a raw preference vector. Every entry must be finite,
// non-negative and within a plausible bound; the budget must be positive.
func ValidateQuery(values []float64) (model.FeatureVector, error) {
	v, err := model.FeatureVectorFromSlice(values)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	for i, x := range v {
		f := model.Feature(i)
		switch {
		case math.IsNaN(x) || math.IsInf(x, 0):
			return v, fmt.Errorf("%w: %s is not a finite number", ErrInvalidQuery, f)
		case x < 0:
			return v, fmt.Errorf("%w: %s must not be negative", ErrInvalidQuery, f)
		case x > queryBounds[i]:
			return v, fmt.Errorf("%w: %s exceeds %g", ErrInvalidQuery, f, queryBounds[i])
		case f == model.FeaturePrice && x == 0:
			return v, fmt.Errorf("%w: budget must be positive", ErrInvalidQuery)
		}
	}
	return v, nil
}

// prepared is a validated request bound to the snapshot it will be served from
type prepared struct {
	snap  *snapshot
	query model.FeatureVector
	topK  int
}

func (s *RecommendationService) prepare(req *model.RecommendRequest) (*prepared, error) {
	query, err := ValidateQuery(req.Query)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	switch {
	case topK < 0:
		return nil, fmt.Errorf("%w: top_k must not be negative", ErrInvalidQuery)
	case topK == 0:
		topK = s.cfg.DefaultTopK
	case topK > s.cfg.MaxTopK:
		topK = s.cfg.MaxTopK
	}

	snap := s.snap.Load()
	if snap.state != StateReady || snap.model == nil {
		return nil, fmt.Errorf("%w: state is %s", ErrNotReady, snap.state)
	}
	return &prepared{snap: snap, query: query, topK: topK}, nil
}

func (p *prepared) cacheKey() string {
	return fmt.Sprintf("%d|%d|%v", p.snap.model.Version, p.topK, p.query)
}

func (s *RecommendationService) candidates(c *Catalog) []model.Laptop {
	if s.cfg.CandidateLimit > 0 && len(c.Laptops) > s.cfg.CandidateLimit {
		return c.Laptops[:s.cfg.CandidateLimit]
	}
	return c.Laptops
}

// Recommend scores the candidate subset of the catalog against a query and
// returns the top K results
func (s *RecommendationService) Recommend(ctx context.Context, req *model.RecommendRequest) (*model.RecommendResponse, error) {
	p, err := s.prepare(req)
	if err != nil {
		s.recordRejected(err)
		return nil, err
	}
	return s.serve(ctx, p, nil)
}

// RecommendStream serves a recommendation while reporting progress through
// callback: "scoring" before candidates are scored, "ranked" once ordered and
// one "result" event per returned laptop
func (s *RecommendationService) RecommendStream(ctx context.Context, req *model.RecommendRequest, callback RecommendEventCallback) (*model.RecommendResponse, error) {
	p, err := s.prepare(req)
	if err != nil {
		s.recordRejected(err)
		return nil, err
	}

	if err := callback("scoring", map[string]any{
		"candidates":    len(s.candidates(p.snap.catalog)),
		"model_version": p.snap.model.Version,
	}); err != nil {
		return nil, err
	}

	resp, err := s.serve(ctx, p, callback)
	if err != nil {
		return nil, err
	}

	for _, view := range resp.Results {
		if err := callback("result", view); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (s *RecommendationService) recordRejected(err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		metrics.RecordRecommend("invalid", 0, false)
	case errors.Is(err, ErrNotReady):
		metrics.RecordRecommend("not_ready", 0, false)
	default:
		metrics.RecordRecommend("error", 0, false)
	}
}

func (s *RecommendationService) serve(ctx context.Context, p *prepared, callback RecommendEventCallback) (*model.RecommendResponse, error) {
	startTime := time.Now()
	key := p.cacheKey()

	if cached, ok := s.cache.Get(key); ok {
		resp := cloneResponse(cached.(*model.RecommendResponse))
		resp.RequestID = uuid.New().String()
		resp.CacheHit = true
		resp.GeneratedAt = time.Now()
		resp.Took = time.Since(startTime).Milliseconds()
		metrics.RecordRecommend("ok", time.Since(startTime), true)
		s.logRecommendation(resp, p)
		return resp, nil
	}

	candidates := s.candidates(p.snap.catalog)
	scored, err := s.scoreCandidates(ctx, p.snap.model, p.query, candidates)
	if err != nil {
		metrics.RecordRecommend("error", 0, false)
		return nil, err
	}

	ranked := s.ranker.RankResults(scored, p.topK)
	if callback != nil {
		if err := callback("ranked", map[string]any{"count": len(ranked)}); err != nil {
			return nil, err
		}
	}

	resp := &model.RecommendResponse{
		RequestID:      uuid.New().String(),
		Results:        BuildViews(ranked),
		Candidates:     len(candidates),
		ModelVersion:   p.snap.model.Version,
		GeneratedAt:    time.Now(),
		CatalogVersion: p.snap.catalog.Version,
	}
	resp.Took = time.Since(startTime).Milliseconds()

	s.cache.SetDefault(key, resp)
	metrics.RecordRecommend("ok", time.Since(startTime), false)
	s.logRecommendation(resp, p)

	return cloneResponse(resp), nil
}

// cloneResponse deep-copies a cached response so callers can never modify
// the cached results
func cloneResponse(resp *model.RecommendResponse) *model.RecommendResponse {
	out := *resp
	out.Results = make([]model.RecommendationView, len(resp.Results))
	for i, v := range resp.Results {
		v.MatchedReasons = append([]string(nil), v.MatchedReasons...)
		out.Results[i] = v
	}
	return &out
}

// scoreCandidates predicts and scores every candidate in parallel. The result
// order matches the candidate order.
func (s *RecommendationService) scoreCandidates(ctx context.Context, m *Model, query model.FeatureVector, candidates []model.Laptop) ([]model.Recommendation, error) {
	results := make([]model.Recommendation, len(candidates))
	if len(candidates) == 0 {
		return results, nil
	}

	workers := s.cfg.Workers
	chunk := (len(candidates) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(candidates); start += chunk {
		start := start // per-iteration copy (go 1.21 loop semantics)
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				aiScore, err := m.PredictRating(candidates[i].Features)
				if err != nil {
					return fmt.Errorf("failed to score laptop %s: %w", candidates[i].ID, err)
				}
				results[i] = s.ranker.Score(query, candidates[i], aiScore)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *RecommendationService) logRecommendation(resp *model.RecommendResponse, p *prepared) {
	if s.store == nil {
		return
	}
	entry := &model.RecommendationLog{
		RequestID:    resp.RequestID,
		Query:        p.query,
		TopK:         p.topK,
		ModelVersion: resp.ModelVersion,
		LaptopIDs:    make([]string, len(resp.Results)),
		ResponseMS:   resp.Took,
	}
	for i, r := range resp.Results {
		entry.LaptopIDs[i] = r.ID
	}

	// Log recommendation (non-blocking)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.store.LogRecommendation(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("request_id", entry.RequestID).Msg("failed to log recommendation")
		}
	}()
}

// GetLaptop retrieves a single laptop from the current catalog
func (s *RecommendationService) GetLaptop(id string) (model.Laptop, error) {
	snap := s.snap.Load()
	if snap.catalog == nil {
		return model.Laptop{}, ErrEmptyCatalog
	}
	l, ok := snap.catalog.Get(id)
	if !ok {
		return model.Laptop{}, fmt.Errorf("%w: %s", ErrLaptopNotFound, id)
	}
	return l, nil
}

// Catalog returns the current catalog snapshot, or nil when none is loaded
func (s *RecommendationService) Catalog() *Catalog {
	return s.snap.Load().catalog
}

// Similar returns the laptops closest to the given one in normalized feature
// space. The store's vector index is used when available.
func (s *RecommendationService) Similar(ctx context.Context, id string, limit int) (*model.SimilarResponse, error) {
	snap := s.snap.Load()
	if snap.state != StateReady || snap.model == nil {
		return nil, fmt.Errorf("%w: state is %s", ErrNotReady, snap.state)
	}
	ref, ok := snap.catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLaptopNotFound, id)
	}
	if limit <= 0 {
		limit = s.cfg.DefaultTopK
	}
	limit = min(limit, s.cfg.MaxTopK)

	target := snap.model.Params.Apply(ref.Features)

	if s.store != nil {
		ids, err := s.store.NearestLaptops(ctx, target, id, limit)
		if err == nil {
			similar := make([]model.Laptop, 0, len(ids))
			for _, sid := range ids {
				if l, ok := snap.catalog.Get(sid); ok {
					similar = append(similar, l)
				}
			}
			if len(similar) > 0 {
				return &model.SimilarResponse{Laptop: ref, Similar: similar}, nil
			}
		} else {
			s.logger.Warn().Err(err).Str("laptop_id", id).Msg("vector lookup failed, using in-memory search")
		}
	}

	type neighbour struct {
		laptop   model.Laptop
		distance float64
	}
	neighbours := make([]neighbour, 0, len(snap.catalog.Laptops))
	for _, l := range snap.catalog.Laptops {
		if l.ID == id {
			continue
		}
		v := snap.model.Params.Apply(l.Features)
		var d float64
		for i := range v {
			diff := v[i] - target[i]
			d += diff * diff
		}
		neighbours = append(neighbours, neighbour{laptop: l, distance: d})
	}
	sort.SliceStable(neighbours, func(i, j int) bool {
		return neighbours[i].distance < neighbours[j].distance
	})

	similar := make([]model.Laptop, 0, limit)
	for _, n := range neighbours {
		if len(similar) == limit {
			break
		}
		similar = append(similar, n.laptop)
	}
	return &model.SimilarResponse{Laptop: ref, Similar: similar}, nil
}

// feedbackActions are the accepted feedback actions
var feedbackActions = map[string]struct{}{
	"click":       {},
	"compare":     {},
	"add_to_cart": {},
}

// LogFeedback logs user feedback/action
func (s *RecommendationService) LogFeedback(ctx context.Context, req *model.FeedbackRequest) error {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if _, ok := feedbackActions[action]; !ok {
		return fmt.Errorf("%w: unsupported action %q", ErrInvalidFeedback, req.Action)
	}
	metrics.Feedback.WithLabelValues(action).Inc()

	if s.store == nil {
		s.logger.Info().
			Str("request_id", req.RequestID).
			Str("laptop_id", req.LaptopID).
			Str("action", action).
			Msg("feedback received")
		return nil
	}
	return s.store.LogFeedback(ctx, req.RequestID, req.LaptopID, action)
}

// Status reports the lifecycle state and the published model
func (s *RecommendationService) Status() model.ServiceStatus {
	snap := s.snap.Load()
	status := model.ServiceStatus{
		State:      string(snap.state),
		IsTraining: s.training.Load(),
	}
	if snap.catalog != nil {
		status.CatalogSize = len(snap.catalog.Laptops)
		status.CatalogVersion = snap.catalog.Version
	}
	if snap.model != nil {
		trainedAt := snap.model.TrainedAt
		status.ModelVersion = snap.model.Version
		status.Estimator = snap.model.Estimator.Name()
		status.Strategy = string(snap.model.Params.Strategy())
		status.TrainedAt = &trainedAt
	}

	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	status.LastError = s.lastErr
	if s.lastRun != nil {
		status.LastTrainingDurationMS = s.lastRun.Duration.Milliseconds()
		if snap.model != nil && s.lastRun.ModelVersion == snap.model.Version {
			status.Training = s.lastRun
		}
	}
	return status
}

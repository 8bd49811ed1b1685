package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvmap/internal/config"
	"github.com/JonMunkholm/csvmap/internal/logging"
	"github.com/JonMunkholm/csvmap/internal/schema"
	"github.com/JonMunkholm/csvmap/internal/store"
	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

var (
	// ErrUnknownSchema is returned for a key with no registered schema.
	ErrUnknownSchema = errors.New("unknown schema")
	// ErrImportDisabled is returned by Import when no database is configured.
	ErrImportDisabled = errors.New("imports are disabled: no database configured")
	// ErrNoImportTarget is returned by Import for schemas without a table.
	ErrNoImportTarget = errors.New("schema has no import table")
	// ErrEmptyFile is returned when the input holds no lines at all.
	ErrEmptyFile = errors.New("empty file")
	// ErrNoFile is returned by transports when a request carries no file.
	ErrNoFile = errors.New("no file provided")
	// ErrFileTooLarge is returned when the input exceeds Upload.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
	// ErrReportNotFound is returned for an unknown or evicted report ID.
	ErrReportNotFound = errors.New("report not found")
)

// DefaultReportHistory is how many finished reports the service keeps.
const DefaultReportHistory = 100

// Service provides the core business logic for CSV parse and import jobs.
type Service struct {
	cfg      *config.Config
	registry *typeconv.Registry
	store    *store.Store
	limiter  *JobLimiter
	reports  *reportCache
}

// NewService creates a Service. st may be nil, which disables imports.
func NewService(cfg *config.Config, st *store.Store) *Service {
	return &Service{
		cfg:      cfg,
		registry: typeconv.Default(),
		store:    st,
		limiter:  NewJobLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		reports:  newReportCache(DefaultReportHistory),
	}
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Registry returns the converter registry used for declarative specs.
func (s *Service) Registry() *typeconv.Registry {
	return s.registry
}

// ImportsEnabled reports whether a database is configured.
func (s *Service) ImportsEnabled() bool {
	return s.store != nil
}

// ListSchemas returns information about all registered schemas.
func (s *Service) ListSchemas() []SchemaInfo {
	defs := All()
	infos := make([]SchemaInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListSchemasByGroup returns schemas organized by group.
func (s *Service) ListSchemasByGroup() map[string][]SchemaInfo {
	result := make(map[string][]SchemaInfo)
	for _, group := range Groups() {
		for _, def := range ByGroup(group) {
			result[group] = append(result[group], def.Info)
		}
	}
	return result
}

// Template returns the header row of the CSV template for a schema.
func (s *Service) Template(key string) ([]string, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	return def.Info.Columns, nil
}

// Parse maps every row of r with the schema registered under key and
// returns the report. Invalid rows are recorded in the report; only source,
// configuration and job failures are returned as errors.
func (s *Service) Parse(ctx context.Context, key, fileName string, r io.Reader) (*Report, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, def, ModeParse, fileName, r)
}

// ParseWithSpec is Parse with an ad-hoc declarative mapping instead of a
// registered schema.
func (s *Service) ParseWithSpec(ctx context.Context, spec *schema.Spec, fileName string, r io.Reader) (*Report, error) {
	def, err := FromSpec(spec, s.registry)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, def, ModeParse, fileName, r)
}

// Import parses r like Parse and copies every valid row into the schema's
// table in a single COPY. Invalid rows are skipped and reported.
func (s *Service) Import(ctx context.Context, key, fileName string, r io.Reader) (*Report, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrImportDisabled
	}
	if !def.SupportsCopy() {
		return nil, fmt.Errorf("%w: %s", ErrNoImportTarget, key)
	}
	return s.run(ctx, def, ModeImport, fileName, r)
}

// Report returns a finished report by ID.
func (s *Service) Report(id uuid.UUID) (*Report, error) {
	r, ok := s.reports.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return r, nil
}

// JobLimiterStatus returns the current job limiter state.
func (s *Service) JobLimiterStatus() JobLimiterStatus {
	return s.limiter.Status()
}

// WaitForJobs blocks until all running jobs finish or ctx is done.
func (s *Service) WaitForJobs(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func lookup(key string) (SchemaDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return SchemaDefinition{}, fmt.Errorf("%w: %s", ErrUnknownSchema, key)
	}
	return def, nil
}

// run executes one job while holding a limiter slot.
func (s *Service) run(ctx context.Context, def SchemaDefinition, mode, fileName string, r io.Reader) (*Report, error) {
	report := &Report{
		ID:         uuid.New(),
		SchemaKey:  def.Info.Key,
		FileName:   fileName,
		Mode:       mode,
		Items:      []any{},
		FailedRows: []FailedRow{},
		StartedAt:  time.Now(),
	}

	logger := logging.WithFields(ctx,
		"job_id", report.ID,
		"schema", def.Info.Key,
		"file", fileName,
		"mode", mode,
	)
	if c, ok := ClientFromContext(ctx); ok {
		logger = logger.With("client_ip", c.IP)
	}

	err := s.limiter.Run(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()

		logger.Info("job started")
		j, err := s.startJob(ctx, def, report, newSizeLimitedReader(r, s.cfg.Upload.MaxFileSize), logger)
		if err != nil {
			return err
		}
		defer j.close()

		if mode == ModeImport {
			target := store.Target{Table: def.Info.Table, Columns: def.CopyColumns}
			n, err := s.store.CopyFunc(ctx, target, j.nextCopyRow)
			report.Inserted = n
			return err
		}
		return j.drain()
	})
	report.Duration = time.Since(report.StartedAt)

	if err != nil {
		logger.Warn("job failed",
			"error", err,
			"code", MapError(err).Code,
			"duration", report.Duration,
		)
		return nil, err
	}

	s.reports.add(report)
	logger.Info("job complete",
		"rows", report.TotalRows,
		"valid", report.Valid,
		"invalid", report.Invalid,
		"skipped", report.Skipped,
		"inserted", report.Inserted,
		"duration", report.Duration,
	)
	return report, nil
}

// reportCache keeps the most recent reports, evicting the oldest first.
type reportCache struct {
	mu    sync.RWMutex
	max   int
	order []uuid.UUID
	byID  map[uuid.UUID]*Report
}

func newReportCache(max int) *reportCache {
	return &reportCache{max: max, byID: make(map[uuid.UUID]*Report, max)}
}

func (c *reportCache) add(r *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.order) == c.max {
		delete(c.byID, c.order[0])
		c.order = c.order[1:]
	}
	c.order = append(c.order, r.ID)
	c.byID[r.ID] = r
}

func (c *reportCache) get(id uuid.UUID) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.byID[id]
	return r, ok
}

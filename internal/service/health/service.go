package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/rentmap-voice/internal/adapter/storage/postgres"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const probeTimeout = 2 * time.Second

var errBrokerDown = errors.New("broker disconnected")

// Probe checks one dependency. A failing probe that is not Critical only
// degrades the service.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

type CheckResult struct {
	Name     string  `json:"name"`
	Status   Status  `json:"status"`
	Critical bool    `json:"critical"`
	Error    string  `json:"error,omitempty"`
	Millis   float64 `json:"duration_ms"`
}

type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime"`
	Sessions  int       `json:"voice_sessions"`
	Timestamp time.Time `json:"timestamp"`
}

type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// connectivity is implemented by queue drivers that track their broker link.
type connectivity interface {
	Connected() bool
}

type Config struct {
	Version string
	DB      *gorm.DB
	Cache   ports.Cache
	// Queue is probed only when the driver reports connectivity.
	Queue ports.EventPublisher
	// LLM returns an error while the language model is refusing calls.
	LLM      func() error
	Sessions func() int
}

type Service struct {
	started  time.Time
	version  string
	sessions func() int
	log      *zap.Logger

	mu     sync.RWMutex
	probes []Probe
}

func NewService(cfg Config, log *zap.Logger) *Service {
	s := &Service{
		started:  time.Now(),
		version:  cfg.Version,
		sessions: cfg.Sessions,
		log:      log,
	}

	if db := cfg.DB; db != nil {
		s.Register(Probe{Name: "database", Critical: true, Check: func(ctx context.Context) error {
			return postgres.Ping(ctx, db)
		}})
	}
	if c := cfg.Cache; c != nil {
		s.Register(Probe{Name: "cache", Critical: true, Check: func(context.Context) error {
			return c.Ping()
		}})
	}
	if q, ok := cfg.Queue.(connectivity); ok {
		s.Register(Probe{Name: "queue", Critical: true, Check: func(context.Context) error {
			if !q.Connected() {
				return errBrokerDown
			}
			return nil
		}})
	}
	if llm := cfg.LLM; llm != nil {
		s.Register(Probe{Name: "llm", Check: func(context.Context) error { return llm() }})
	}
	return s
}

// Register adds a probe; a probe with the same name is replaced.
func (s *Service) Register(p Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.probes {
		if s.probes[i].Name == p.Name {
			s.probes[i] = p
			return
		}
	}
	s.probes = append(s.probes, p)
}

// Health is the liveness answer; it never touches dependencies.
func (s *Service) Health(ctx context.Context) *HealthResponse {
	resp := &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
	if s.sessions != nil {
		resp.Sessions = s.sessions()
	}
	return resp
}

// Ready runs every probe concurrently. Only critical failures make the
// service unready.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	probes := append([]Probe(nil), s.probes...)
	s.mu.RUnlock()

	results := make([]CheckResult, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p Probe) {
			defer wg.Done()
			results[i] = s.run(ctx, p)
		}(i, p)
	}
	wg.Wait()

	resp := &ReadyResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult, len(results)),
	}
	for _, r := range results {
		resp.Checks[r.Name] = r
		switch {
		case r.Status == StatusHealthy:
		case r.Critical:
			resp.Ready = false
			resp.Status = StatusUnhealthy
		case resp.Status == StatusHealthy:
			resp.Status = StatusDegraded
		}
	}
	return resp
}

func (s *Service) run(ctx context.Context, p Probe) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	r := CheckResult{
		Name:     p.Name,
		Status:   StatusHealthy,
		Critical: p.Critical,
		Millis:   float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		r.Status = StatusUnhealthy
		if !p.Critical {
			r.Status = StatusDegraded
		}
		r.Error = err.Error()
		s.log.Warn("Readiness probe failed", zap.String("probe", p.Name), zap.Bool("critical", p.Critical), zap.Error(err))
	}
	return r
}

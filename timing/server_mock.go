package timing

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryanzkys/apatte-pitbox/config"
	"github.com/aryanzkys/apatte-pitbox/infra/logger"
)

// ServerMock exposes HTTP endpoints for injecting standings locally,
// for tracks where no timing tower feed is available.
type ServerMock struct {
	addr   string
	recv   Receiver
	log    logger.Logger
	srv    *http.Server
	total  prometheus.Counter
	failed prometheus.Counter
}

// NewServerMock creates a new mock server using the default Prometheus
// registerer.
func NewServerMock(cfg config.TimingMockConfig, r Receiver) *ServerMock {
	return NewServerMockWithRegistry(cfg, r, prometheus.DefaultRegisterer)
}

// NewServerMockWithRegistry creates a new mock server and registers
// metrics on the provided registerer. If reg is nil the default
// registerer is used.
func NewServerMockWithRegistry(cfg config.TimingMockConfig, r Receiver, reg prometheus.Registerer) *ServerMock {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	log := logger.New("timing-server-mock")

	total := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timing_standings_total",
		Help: "Total received standings payloads",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timing_standings_failed",
		Help: "Rejected standings payloads",
	})

	if err := reg.Register(total); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Counter); ok {
				total = exist
			} else {
				log.Errorf("existing collector for timing_standings_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	if err := reg.Register(failed); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Counter); ok {
				failed = exist
			} else {
				log.Errorf("existing collector for timing_standings_failed has wrong type %T", are.ExistingCollector)
			}
		}
	}

	return &ServerMock{
		addr:   cfg.Address,
		recv:   r,
		log:    log,
		total:  total,
		failed: failed,
	}
}

func (s *ServerMock) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/timing/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("pong")); err != nil {
			s.log.Errorf("write pong: %v", err)
		}
	})
	mux.HandleFunc("/timing/standings", s.handleStandings)
	return mux
}

func (s *ServerMock) handleStandings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var st Standings
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		s.failed.Inc()
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := st.Validate(); err != nil {
		s.failed.Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.total.Inc()
	s.log.Infof("standings injected: rank %d/%d", st.Rank, st.FleetSize)
	s.recv.ApplyStandings(st)
	w.WriteHeader(http.StatusOK)
}

// Addr returns the listening address once Start has been called.
func (s *ServerMock) Addr() string { return s.addr }

// Start runs the HTTP server until the context is canceled.
func (s *ServerMock) Start(ctx context.Context) error {
	mux := s.routes()
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	s.srv = &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
		cancel()
	}()
	s.log.Infof("timing mock server listening on %s", s.addr)
	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

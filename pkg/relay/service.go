// Package relay wires event sources through trigger filtering, payload
// normalization, and webhook dispatch, and serves health endpoints.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hookbridge/pkg/config"
	"hookbridge/pkg/event"
	"hookbridge/pkg/payload"
	"hookbridge/pkg/source"
	"hookbridge/pkg/trigger"
	"hookbridge/pkg/webhook"
)

const (
	defaultStatusHost = "0.0.0.0"
	defaultStatusPort = 18791

	configRecheckInterval = 30 * time.Second
)

// Service runs all enabled sources and processes each inbound event start
// to finish: filter, admission, normalize, dispatch.
type Service struct {
	store      *config.Store
	log        *slog.Logger
	dispatcher *webhook.Dispatcher
	sources    []source.Source

	mu             sync.RWMutex
	startedAt      time.Time
	configLastOKAt time.Time
	configLastErr  string
	sourceStates   map[string]sourceState
}

type sourceState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status          string                 `json:"status"`
	UptimeSeconds   int64                  `json:"uptime_seconds"`
	ConfigLastOKAt  string                 `json:"config_last_ok_at,omitempty"`
	ConfigLastError string                 `json:"config_last_error,omitempty"`
	Sources         map[string]sourceState `json:"sources"`
}

// NewService builds a relay service over the given config store and sources.
func NewService(store *config.Store, sources []source.Source, log *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("config store is required")
	}
	if len(sources) == 0 {
		return nil, errors.New("at least one event source is required")
	}
	if log == nil {
		log = slog.Default()
	}

	registry := webhook.NewRegistry(store, log)

	sourceStates := make(map[string]sourceState, len(sources))
	for _, src := range sources {
		sourceStates[src.Name()] = sourceState{}
	}

	return &Service{
		store:        store,
		log:          log.With("component", "relay.service"),
		dispatcher:   webhook.NewDispatcher(registry, log),
		sources:      sources,
		sourceStates: sourceStates,
	}, nil
}

// Run starts the status server and every source, then blocks until the
// context is canceled or a source or the server fails.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	if err := s.checkConfigHealth(); err != nil {
		return err
	}

	serverErrors := make(chan error, 1)
	go s.runStatusServer(ctx, serverErrors)

	ticker := time.NewTicker(configRecheckInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.checkConfigHealth()
			}
		}
	}()

	errCh := make(chan error, len(s.sources))
	for _, src := range s.sources {
		src := src
		s.setSourceState(src.Name(), sourceState{Running: true})

		go func() {
			err := src.Run(ctx, s.HandleMessage)
			s.setSourceState(src.Name(), sourceState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s source: %w", src.Name(), err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErrors:
		return err
	case err := <-errCh:
		return err
	}
}

// HandleMessage processes one inbound event to completion. A failure while
// filtering, normalizing, or dispatching drops that one event and never
// propagates to the source loop.
func (s *Service) HandleMessage(ctx context.Context, msg event.Message) error {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.log.Error("Recovered from panic while processing event", "message_id", msg.ID, "panic", recovered)
		}
	}()

	cfg, err := s.store.Current()
	if err != nil {
		s.log.Error("Dropping event, configuration unavailable", "message_id", msg.ID, "error", err)
		return nil
	}
	relayCfg := cfg.Relay

	if msg.DirectMessage() {
		if !relayCfg.AllowDirectMessages {
			s.log.Debug("Ignoring direct message, DM handling disabled", "message_id", msg.ID)
			return nil
		}
	} else if !trigger.GuildAllowed(msg.GuildID, trigger.AllowlistSet(relayCfg.GuildAllowlist)) {
		s.log.Debug("Ignoring message from guild outside allow-list", "message_id", msg.ID, "guild_id", msg.GuildID)
		return nil
	}

	result := trigger.Evaluate(msg, relayCfg.BotUserID, trigger.Settings{
		Prefix:                 relayCfg.TriggerPrefix(),
		AllowBroadcastMentions: relayCfg.AllowBroadcastMentions,
		AllowDirectMessages:    relayCfg.AllowDirectMessages,
	})
	if !result.Called {
		return nil
	}

	s.log.Info("Relaying message", "message_id", msg.ID, "rule", result.Rule, "channel_id", msg.ChannelID)

	results, err := s.dispatcher.Dispatch(ctx, payload.Normalize(msg, payload.EventTypeMessageCreate, result))
	if err != nil {
		s.log.Error("Dispatch aborted", "message_id", msg.ID, "error", err)
		return nil
	}

	switch {
	case len(results) == 0:
		s.log.Warn("No destinations configured, payload not delivered", "message_id", msg.ID)
	case webhook.AnySuccess(results):
		s.log.Info("Payload delivered", "message_id", msg.ID, "destinations", len(results))
	default:
		s.log.Error("Payload delivery failed for every destination", "message_id", msg.ID, "destinations", len(results))
	}

	return nil
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	cfg, err := s.store.Current()
	host := defaultStatusHost
	port := defaultStatusPort
	if err == nil {
		if value := strings.TrimSpace(cfg.Gateway.Host); value != "" {
			host = value
		}
		if cfg.Gateway.Port > 0 {
			port = cfg.Gateway.Port
		}
	}

	addr := host + ":" + strconv.Itoa(port)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Relay status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	response := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	sources := make(map[string]sourceState, len(s.sourceStates))
	for name, state := range s.sourceStates {
		sources[name] = state
	}

	configLastOK := ""
	if !s.configLastOKAt.IsZero() {
		configLastOK = s.configLastOKAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:          status,
		UptimeSeconds:   uptime,
		ConfigLastOKAt:  configLastOK,
		ConfigLastError: s.configLastErr,
		Sources:         sources,
	}
}

func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	anyRunning := false
	for _, state := range s.sourceStates {
		if state.Running {
			anyRunning = true
			break
		}
	}
	if !anyRunning {
		return false
	}

	if s.configLastOKAt.IsZero() || s.configLastErr != "" {
		return false
	}

	return true
}

func (s *Service) checkConfigHealth() error {
	if _, err := s.store.Load(); err != nil {
		s.mu.Lock()
		s.configLastErr = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("config health check failed: %w", err)
	}

	s.mu.Lock()
	s.configLastErr = ""
	s.configLastOKAt = time.Now().UTC()
	s.mu.Unlock()

	return nil
}

func (s *Service) setSourceState(name string, state sourceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourceStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

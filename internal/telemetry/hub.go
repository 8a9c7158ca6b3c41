package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rjboer/GoRCS/internal/logging"
	"github.com/rjboer/GoRCS/internal/mie"
	"github.com/rjboer/GoRCS/internal/plot"
)

// Config represents the runtime configuration exposed by the results hub.
type Config struct {
	HistoryLimit int `json:"historyLimit"`
	PlotWidth    int `json:"plotWidth"`
	PlotHeight   int `json:"plotHeight"`
}

const (
	minHistoryLimit = 1
	maxHistoryLimit = 10_000
	minPlotSize     = 100
	maxPlotSize     = 4096
)

func defaultConfig() Config {
	return Config{
		HistoryLimit: 100,
		PlotWidth:    800,
		PlotHeight:   500,
	}
}

func validateConfig(cfg Config, base Config) (Config, error) {
	if base.HistoryLimit == 0 || base.PlotWidth == 0 || base.PlotHeight == 0 {
		base = defaultConfig()
	}

	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = base.HistoryLimit
	}
	if cfg.PlotWidth == 0 {
		cfg.PlotWidth = base.PlotWidth
	}
	if cfg.PlotHeight == 0 {
		cfg.PlotHeight = base.PlotHeight
	}

	if cfg.HistoryLimit < minHistoryLimit || cfg.HistoryLimit > maxHistoryLimit {
		return Config{}, fmt.Errorf("history limit must be between %d and %d", minHistoryLimit, maxHistoryLimit)
	}
	if cfg.PlotWidth < minPlotSize || cfg.PlotWidth > maxPlotSize || cfg.PlotHeight < minPlotSize || cfg.PlotHeight > maxPlotSize {
		return Config{}, fmt.Errorf("plot size must be between %d and %d pixels", minPlotSize, maxPlotSize)
	}
	return cfg, nil
}

// Latest is the most recent full curve held by the hub.
type Latest struct {
	Summary  Summary       `json:"summary"`
	Records  []mie.Record  `json:"records"`
	Warnings []mie.Warning `json:"warnings"`
}

// Hub keeps the history of computed curves and fans out summaries to
// subscribers.
type Hub struct {
	mu          sync.RWMutex
	history     []Summary
	latest      *Latest
	subscribers map[chan Summary]struct{}
	config      Config
	logger      logging.Logger
}

// NewHub builds a results hub with the provided history limit.
func NewHub(historyLimit int, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	cfg := defaultConfig()
	if historyLimit > 0 {
		cfg.HistoryLimit = historyLimit
	}
	if valid, err := validateConfig(cfg, defaultConfig()); err == nil {
		cfg = valid
	} else {
		cfg = defaultConfig()
	}
	return &Hub{
		subscribers: make(map[chan Summary]struct{}),
		config:      cfg,
		logger:      logger.With(logging.Field{Key: "subsystem", Value: "telemetry"}),
	}
}

// Report implements Reporter and records a computed curve.
func (h *Hub) Report(s Summary, curve mie.Curve) {
	latest := &Latest{
		Summary:  s,
		Records:  append([]mie.Record(nil), curve.Records...),
		Warnings: append([]mie.Warning(nil), curve.Warnings...),
	}

	h.mu.Lock()
	h.history = append(h.history, s)
	if len(h.history) > h.config.HistoryLimit {
		h.history = h.history[len(h.history)-h.config.HistoryLimit:]
	}
	h.latest = latest
	for ch := range h.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
	h.mu.Unlock()
}

// History returns a copy of stored summaries.
func (h *Hub) History() []Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Summary, len(h.history))
	copy(out, h.history)
	return out
}

// LatestCurve returns the most recent curve, or false if none was reported.
func (h *Hub) LatestCurve() (Latest, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Latest{}, false
	}
	return *h.latest, true
}

// ConfigSnapshot returns the latest validated configuration.
func (h *Hub) ConfigSnapshot() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Subscribe registers a listener for live updates.
func (h *Hub) Subscribe() (chan Summary, func()) {
	ch := make(chan Summary, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		close(ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) applyConfig(cfg Config) {
	h.config = cfg
	if len(h.history) > cfg.HistoryLimit {
		h.history = h.history[len(h.history)-cfg.HistoryLimit:]
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Hub) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.History())
}

func (h *Hub) handleCurve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	latest, ok := h.LatestCurve()
	if !ok {
		http.Error(w, "no curve computed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, latest)
}

func (h *Hub) handlePlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	latest, ok := h.LatestCurve()
	if !ok {
		http.Error(w, "no curve computed yet", http.StatusNotFound)
		return
	}
	cfg := h.ConfigSnapshot()
	svg := plot.SVG(mie.Curve{Records: latest.Records}, plot.Options{
		Width:  cfg.PlotWidth,
		Height: cfg.PlotHeight,
		Title:  latest.Summary.Label,
	})
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(svg))
}

func (h *Hub) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.ConfigSnapshot())
}

func (h *Hub) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var incoming Config
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		http.Error(w, fmt.Sprintf("invalid config payload: %v", err), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	cfg, err := validateConfig(incoming, h.config)
	if err == nil {
		h.applyConfig(cfg)
	}
	h.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Info("config updated", logging.Field{Key: "history_limit", Value: cfg.HistoryLimit})

	writeJSON(w, cfg)
}

func (h *Hub) handleLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := h.Subscribe()
	defer cancel()

	// send existing history for immediate display
	for _, s := range h.History() {
		writeEvent(w, s)
	}
	flusher.Flush()

	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, s)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, s Summary) {
	payload, _ := json.Marshal(s)
	w.Write([]byte("data: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
}

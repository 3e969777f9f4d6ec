package wizard

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// loadingStatuses is the fixed caption cycle shown while a proposal
// generates. Purely cosmetic and decoupled from real generation progress.
var loadingStatuses = []string{
	"Auditing donor's historical grant patterns...",
	"Aligning project objectives with mission values...",
	"Synthesizing impact metrics and outcomes...",
	"Optimizing proposal for institutional relevance...",
	"Polishing executive summary for maximum engagement...",
	"Finalizing strategic sustainability plan...",
}

const (
	progressInterval = 1800 * time.Millisecond
	progressCeiling  = 92.0
	progressStride   = 8.0
)

// ProgressSource feeds the wizard's loading indicator. The simulator below is
// the only implementation today; a real streaming progress signal can replace
// it without touching the wizard's state machine.
type ProgressSource interface {
	Start()
	Stop()
	Snapshot() (percent float64, caption string)
}

// simulator advances a bounded progress value by random increments and cycles
// the status captions on a fixed interval.
type simulator struct {
	mu       sync.Mutex
	interval time.Duration
	percent  float64
	caption  int
	stop     chan struct{}
}

// NewSimulatedProgress returns the cosmetic progress source.
func NewSimulatedProgress() ProgressSource {
	return &simulator{interval: progressInterval}
}

func newSimulatorWithInterval(interval time.Duration) *simulator {
	return &simulator{interval: interval}
}

func (p *simulator) Start() {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return
	}
	p.percent = 0
	p.caption = 0
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.tick()
			}
		}
	}()
}

func (p *simulator) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.percent < progressCeiling {
		p.percent += rand.Float64() * progressStride
	}
	p.caption = (p.caption + 1) % len(loadingStatuses)
}

func (p *simulator) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func (p *simulator) Snapshot() (float64, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent, loadingStatuses[p.caption]
}

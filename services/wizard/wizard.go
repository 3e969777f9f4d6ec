package wizard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"donorscout/backend/services/gemini"
)

var (
	ErrNotFound      = errors.New("wizard not found")
	ErrNoProfile     = errors.New("organization profile required")
	ErrBadStep       = errors.New("action not valid in this step")
	ErrGenerating    = errors.New("proposal generation in progress")
	ErrMissingFields = errors.New("all project fields are required")
)

// Step is the wizard's current state. Transitions are strictly forward except
// a generation failure or an explicit revise, both of which return to intake.
type Step string

const (
	StepContext Step = "context"
	StepIntake  Step = "intake"
	StepResult  Step = "result"
)

// Profile is the org context confirmed in step one and merged into the
// generation request in step two.
type Profile struct {
	Name    string
	Mission string
}

// Intake is the step-two project form. Every field is required.
type Intake struct {
	ProjectTitle    string `json:"project_title"`
	ProjectGoals    string `json:"project_goals"`
	AmountRequested string `json:"amount_requested"`
	Timeline        string `json:"timeline"`
	Beneficiaries   string `json:"beneficiaries"`
}

// Generator is the slice of the generation client the wizard needs.
type Generator interface {
	GenerateGrantProposal(ctx context.Context, donor gemini.DonorLead, project gemini.ProjectInfo) (string, error)
}

// Wizard is one proposal-generation flow for one donor target.
type Wizard struct {
	ID    string
	Donor gemini.DonorLead

	mu         sync.Mutex
	step       Step
	generating bool
	canceled   bool
	intake     Intake
	proposal   string
	genErr     string
	progress   ProgressSource
	gen        Generator
}

// State is a point-in-time snapshot for the HTTP layer.
type State struct {
	ID         string           `json:"id"`
	Donor      gemini.DonorLead `json:"donor"`
	Step       Step             `json:"step"`
	Generating bool             `json:"generating"`
	Progress   float64          `json:"progress,omitempty"`
	Caption    string           `json:"caption,omitempty"`
	Intake     Intake           `json:"intake"`
	Proposal   string           `json:"proposal,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Manager owns the open wizards, keyed by ID.
type Manager struct {
	mu          sync.Mutex
	wizards     map[string]*Wizard
	owners      map[string]int
	gen         Generator
	newProgress func() ProgressSource
}

func NewManager(gen Generator) *Manager {
	return &Manager{
		wizards:     make(map[string]*Wizard),
		owners:      make(map[string]int),
		gen:         gen,
		newProgress: NewSimulatedProgress,
	}
}

// SetProgressFactory overrides the cosmetic progress source, for tests or a
// future real progress signal.
func (m *Manager) SetProgressFactory(factory func() ProgressSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newProgress = factory
}

// Open starts a wizard for a donor target.
func (m *Manager) Open(userID int, donor gemini.DonorLead) *Wizard {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := &Wizard{
		ID:       uuid.NewString(),
		Donor:    donor,
		step:     StepContext,
		progress: m.newProgress(),
		gen:      m.gen,
	}
	m.wizards[w.ID] = w
	m.owners[w.ID] = userID
	return w
}

// Get returns an open wizard if it belongs to the user.
func (m *Manager) Get(userID int, id string) (*Wizard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wizards[id]
	if !ok || m.owners[id] != userID {
		return nil, ErrNotFound
	}
	return w, nil
}

// Close discards the wizard and all in-progress data. A close during
// generation marks it canceled so the late result is dropped, never applied.
func (m *Manager) Close(userID int, id string) error {
	m.mu.Lock()
	w, ok := m.wizards[id]
	if !ok || m.owners[id] != userID {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.wizards, id)
	delete(m.owners, id)
	m.mu.Unlock()

	w.mu.Lock()
	w.canceled = true
	w.progress.Stop()
	w.mu.Unlock()
	return nil
}

// Confirm advances context → intake. It requires the org profile to exist;
// without one the only path out of step one is closing the wizard.
func (w *Wizard) Confirm(profile *Profile) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepContext {
		return ErrBadStep
	}
	if profile == nil {
		return ErrNoProfile
	}
	w.step = StepIntake
	return nil
}

// Submit validates the intake form, merges it with the org context, and
// starts generation, advancing to the result step in its loading sub-state.
// The profile is re-checked in case it was cleared after Confirm.
func (w *Wizard) Submit(intake Intake, profile *Profile) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepIntake {
		return ErrBadStep
	}
	if profile == nil {
		return ErrNoProfile
	}
	if intake.ProjectTitle == "" || intake.ProjectGoals == "" ||
		intake.AmountRequested == "" || intake.Timeline == "" ||
		intake.Beneficiaries == "" {
		return ErrMissingFields
	}

	w.intake = intake
	w.step = StepResult
	w.generating = true
	w.genErr = ""
	w.progress.Start()

	project := gemini.ProjectInfo{
		ProjectTitle:    intake.ProjectTitle,
		ProjectGoals:    intake.ProjectGoals,
		AmountRequested: intake.AmountRequested,
		Timeline:        intake.Timeline,
		Beneficiaries:   intake.Beneficiaries,
		NonprofitName:   profile.Name,
		Mission:         profile.Mission,
	}

	// Generation is not cancellable once issued; the canceled flag only
	// stops the result from being applied to a closed wizard.
	go func() {
		text, err := w.gen.GenerateGrantProposal(context.Background(), w.Donor, project)
		w.settle(text, err)
	}()
	return nil
}

func (w *Wizard) settle(text string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress.Stop()
	w.generating = false
	if w.canceled {
		return
	}
	if err != nil {
		w.step = StepIntake
		w.genErr = "Failed to generate proposal. Please try again."
		return
	}
	w.proposal = text
}

// Revise returns a completed result to the intake form for correction.
func (w *Wizard) Revise() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepResult {
		return ErrBadStep
	}
	if w.generating {
		return ErrGenerating
	}
	w.step = StepIntake
	return nil
}

// Proposal returns the generated text once ready.
func (w *Wizard) Proposal() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepResult || w.generating || w.proposal == "" {
		return "", ErrBadStep
	}
	return w.proposal, nil
}

// Intake returns the submitted project form.
func (w *Wizard) IntakeData() Intake {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.intake
}

// Snapshot reports the wizard's current state, including the cosmetic
// progress while generating.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := State{
		ID:         w.ID,
		Donor:      w.Donor,
		Step:       w.step,
		Generating: w.generating,
		Intake:     w.intake,
		Proposal:   w.proposal,
		Error:      w.genErr,
	}
	if w.generating {
		state.Progress, state.Caption = w.progress.Snapshot()
	}
	return state
}

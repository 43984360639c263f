package wizard

import (
	"fmt"
	"io"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

type (
	wizardState int

	initWizardModel struct {
		state      wizardState
		target     string
		ecosystems []wizardEcosystem
		options    domain.Options
		capture    application.CaptureMode
		parallel   int
		cursor     int
		confirmed  bool
		aborted    bool
		base       application.Config
	}

	wizardEcosystem struct {
		ecosystem domain.Ecosystem
		detected  bool
		preferred bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// Option rows follow the ecosystem rows in the edit view.
const (
	rowAcceptNoVenv = iota
	rowWrapperRegenerate
	rowCapture
	rowParallel
	optionRows
)

const maxParallel = 32

// Run shows the init wizard for target. candidates are the ecosystems detected
// in target, listed first; all is every ecosystem the registry supports.
func Run(cfg application.Config, target string, candidates, all []domain.Ecosystem, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(newInitWizardModel(cfg, target, candidates, all), stdout, stdin)
}

func runInitWizard(model *initWizardModel, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return model.base, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return model.base, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return model.base, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg application.Config, target string, candidates, all []domain.Ecosystem) *initWizardModel {
	ecosystems := make([]wizardEcosystem, 0, len(all)+len(candidates))
	seen := make(map[domain.Ecosystem]bool)
	add := func(eco domain.Ecosystem, detected bool) {
		if seen[eco] {
			return
		}
		seen[eco] = true
		ecosystems = append(ecosystems, wizardEcosystem{
			ecosystem: eco,
			detected:  detected,
			preferred: slices.Contains(cfg.Prefer, eco),
		})
	}
	// Configured preferences keep their order at the top.
	for _, eco := range cfg.Prefer {
		add(eco, slices.Contains(candidates, eco))
	}
	for _, eco := range candidates {
		add(eco, true)
	}
	for _, eco := range all {
		add(eco, false)
	}

	capture := cfg.Capture
	if capture == "" {
		capture = application.CaptureStream
	}
	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = 1
	}
	return &initWizardModel{
		state:      stateIntro,
		target:     target,
		ecosystems: ecosystems,
		options:    cfg.Options,
		capture:    capture,
		parallel:   parallel,
		base:       cfg,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit {
				m.moveCursor(-1)
			}
		case "down":
			if m.state == stateEdit {
				m.moveCursor(1)
			}
		case "shift+up", "K":
			if m.state == stateEdit {
				m.moveEcosystem(-1)
			}
		case "shift+down", "J":
			if m.state == stateEdit {
				m.moveEcosystem(1)
			}
		case " ", "x":
			if m.state == stateEdit {
				m.toggleSelection()
			}
		case "left", "-":
			if m.state == stateEdit {
				m.adjustSelection(-1)
			}
		case "right", "+":
			if m.state == stateEdit {
				m.adjustSelection(1)
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) rows() int {
	return len(m.ecosystems) + optionRows
}

func (m *initWizardModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, m.rows()-1)
}

// moveEcosystem swaps the ecosystem under the cursor with its neighbour,
// which changes its rank among the preferred ecosystems.
func (m *initWizardModel) moveEcosystem(delta int) {
	if m.cursor >= len(m.ecosystems) {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= len(m.ecosystems) {
		return
	}
	m.ecosystems[m.cursor], m.ecosystems[next] = m.ecosystems[next], m.ecosystems[m.cursor]
	m.cursor = next
}

func (m *initWizardModel) toggleSelection() {
	if m.cursor < len(m.ecosystems) {
		m.ecosystems[m.cursor].preferred = !m.ecosystems[m.cursor].preferred
		return
	}
	switch m.cursor - len(m.ecosystems) {
	case rowAcceptNoVenv:
		m.options.AcceptNoVenv = !m.options.AcceptNoVenv
	case rowWrapperRegenerate:
		m.options.WrapperRegenerate = !m.options.WrapperRegenerate
	case rowCapture:
		m.toggleCapture()
	}
}

func (m *initWizardModel) adjustSelection(delta int) {
	switch m.cursor - len(m.ecosystems) {
	case rowCapture:
		m.toggleCapture()
	case rowParallel:
		m.parallel = clamp(m.parallel+delta, 1, maxParallel)
	}
}

func (m *initWizardModel) toggleCapture() {
	if m.capture == application.CaptureStream {
		m.capture = application.CaptureBuffer
		return
	}
	m.capture = application.CaptureStream
}

func (m *initWizardModel) detected() []domain.Ecosystem {
	var out []domain.Ecosystem
	for _, e := range m.ecosystems {
		if e.detected {
			out = append(out, e.ecosystem)
		}
	}
	return out
}

func (m *initWizardModel) preferred() []domain.Ecosystem {
	var out []domain.Ecosystem
	for _, e := range m.ecosystems {
		if e.preferred {
			out = append(out, e.ecosystem)
		}
	}
	return out
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nngr init wizard\n\n")
	detected := m.detected()
	if len(detected) == 0 {
		fmt.Fprintf(&b, "No ecosystem markers found in %s.\n", m.target)
	} else {
		fmt.Fprintf(&b, "Detected in %s: %s\n", m.target, joinEcosystems(detected))
	}
	fmt.Fprintf(&b, "\nThe wizard helps you pick preferred ecosystems and run options.\n")
	fmt.Fprintf(&b, "Press Enter to continue, or Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview preferences\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, space to toggle, K/J to reorder, ←/→ to change values.\n\n")
	fmt.Fprintf(&b, "Ecosystems (preferred are tried first, in this order):\n")
	for idx, eco := range m.ecosystems {
		mark := "[ ]"
		if eco.preferred {
			mark = "[x]"
		}
		detected := ""
		if eco.detected {
			detected = " (detected)"
		}
		fmt.Fprintf(&b, "%s%s %s%s\n", m.indicator(idx), mark, eco.ecosystem, detected)
	}
	n := len(m.ecosystems)
	fmt.Fprintf(&b, "\nOptions:\n")
	fmt.Fprintf(&b, "%saccept-no-venv: %s\n", m.indicator(n+rowAcceptNoVenv), onOff(m.options.AcceptNoVenv))
	fmt.Fprintf(&b, "%swrapper-regenerate: %s\n", m.indicator(n+rowWrapperRegenerate), onOff(m.options.WrapperRegenerate))
	fmt.Fprintf(&b, "%scapture: %s\n", m.indicator(n+rowCapture), m.capture)
	fmt.Fprintf(&b, "%sparallel: %d\n", m.indicator(n+rowParallel), m.parallel)
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	if preferred := m.preferred(); len(preferred) > 0 {
		fmt.Fprintf(&b, "Preferred ecosystems: %s\n", joinEcosystems(preferred))
	} else {
		fmt.Fprintf(&b, "No preferred ecosystems, marker priority decides.\n")
	}
	fmt.Fprintf(&b, "accept-no-venv: %s\n", onOff(m.options.AcceptNoVenv))
	fmt.Fprintf(&b, "wrapper-regenerate: %s\n", onOff(m.options.WrapperRegenerate))
	fmt.Fprintf(&b, "capture: %s\n", m.capture)
	fmt.Fprintf(&b, "parallel: %d\n", m.parallel)
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) indicator(row int) string {
	if m.cursor == row {
		return "> "
	}
	return "  "
}

func (m *initWizardModel) toConfig() application.Config {
	cfg := m.base
	cfg.Prefer = m.preferred()
	cfg.Options = m.options
	cfg.Capture = m.capture
	cfg.Parallel = m.parallel
	return cfg
}

func joinEcosystems(ecos []domain.Ecosystem) string {
	names := make([]string, len(ecos))
	for i, e := range ecos {
		names[i] = e.String()
	}
	return strings.Join(names, ", ")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

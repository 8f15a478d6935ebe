package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lanegraph/lanegraph/pkg/discovery"
	"github.com/lanegraph/lanegraph/pkg/layout"
	"github.com/lanegraph/lanegraph/pkg/lineage"
	"github.com/lanegraph/lanegraph/pkg/runner"
	"github.com/lanegraph/lanegraph/pkg/store"
)

// genMsg carries one optimizer generation snapshot into the watch view.
type genMsg struct {
	generation int
	best       float64
}

// doneMsg ends the watch view.
type doneMsg struct {
	summary runner.Summary
	err     error
}

// watchModel is the bubbletea model for the live optimization view.
type watchModel struct {
	totalGenerations int
	generation       int
	best             float64
	families         int
	familiesDone     int
	summary          *runner.Summary
	err              error
}

func newWatchModel(families, totalGenerations int) watchModel {
	return watchModel{families: families, totalGenerations: totalGenerations}
}

func (m watchModel) Init() tea.Cmd {
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case genMsg:
		// A generation counter reset marks the next family starting.
		if msg.generation < m.generation {
			m.familiesDone++
		}
		m.generation = msg.generation
		m.best = msg.best
	case doneMsg:
		m.summary = &msg.summary
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Optimizing lanes"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s\n",
		StyleDim.Render("family"),
		StyleValue.Render(fmt.Sprintf("%d / %d", min(m.familiesDone+1, m.families), m.families)))
	fmt.Fprintf(&b, "%s %s\n",
		StyleDim.Render("generation"),
		StyleValue.Render(fmt.Sprintf("%d / %d", m.generation, m.totalGenerations)))
	fmt.Fprintf(&b, "%s %s\n",
		StyleDim.Render("best score"),
		StyleHighlight.Render(fmt.Sprintf("%.2f", m.best)))

	if m.summary != nil {
		b.WriteString("\n")
		b.WriteString(StyleSuccess.Render(fmt.Sprintf("done: %d optimized, %d cache hits",
			m.summary.Optimized, m.summary.CacheHits)))
		b.WriteString("\n")
	}
	return b.String()
}

// optimizeWatch runs the optimizer with a live terminal view, logging through
// the context's logger. Families run one at a time so the generation stream
// stays readable.
func optimizeWatch(ctx context.Context, st store.Store, rcfg runner.Config, g *lineage.Graph, hashes []string) error {
	rcfg.Concurrency = 1

	familyCount := len(hashes)
	if familyCount == 0 {
		familyCount = countFamilies(g, rcfg.Threshold)
	}

	prog := tea.NewProgram(newWatchModel(familyCount, rcfg.Params.Generations), tea.WithContext(ctx))

	rcfg.Params.OnGeneration = func(p layout.Progress) {
		prog.Send(genMsg{generation: p.Generation, best: p.Best})
	}

	r := runner.New(st, loggerFromContext(ctx), rcfg)
	go func() {
		var summary runner.Summary
		var err error
		if len(hashes) > 0 {
			summary, err = r.OptimizeHashes(ctx, g, hashes)
		} else {
			summary, err = r.OptimizeAll(ctx, g)
		}
		prog.Send(doneMsg{summary: summary, err: err})
	}()

	model, err := prog.Run()
	if err != nil {
		return err
	}
	if m, ok := model.(watchModel); ok && m.err != nil {
		return m.err
	}
	return nil
}

func countFamilies(g *lineage.Graph, threshold int) int {
	if threshold <= 0 {
		threshold = discovery.DefaultThreshold
	}
	return len(discovery.Families(g, threshold))
}

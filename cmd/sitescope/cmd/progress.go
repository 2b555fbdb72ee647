package cmd

import (
	"fmt"
	"strings"

	"github.com/sitescope/sitescope/internal/events"
)

// streamProgress prints audit progress lines from the event bus until
// the bus closes. Run it in its own goroutine and wait on the returned
// channel before printing the final summary.
func streamProgress(bus *events.EventBus) <-chan struct{} {
	ch := bus.Subscribe(
		events.TypeCollectStarted,
		events.TypeCollectCompleted,
		events.TypePhaseStarted,
		events.TypeAgentCompleted,
		events.TypeAgentFailed,
		events.TypeAgentSkipped,
		events.TypeRevisionRequested,
		events.TypeCeilingReached,
	)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range ch {
			switch e := ev.(type) {
			case events.CollectStarted:
				fmt.Printf("%s crawling %s (up to %d pages)\n",
					paint(styleMuted, "::"), e.RootURL, e.MaxPages)
			case events.CollectCompleted:
				fmt.Printf("%s collected %d pages\n", paint(styleMuted, "::"), e.Pages)
			case events.PhaseStarted:
				fmt.Printf("%s phase %d: %s\n",
					paint(styleHeading, "=>"), e.Phase+1, strings.Join(e.Agents, ", "))
			case events.AgentCompleted:
				note := ""
				if e.Degraded {
					note = paint(styleMuted, " (heuristic)")
				}
				fmt.Printf("   %s %-20s %s%s\n",
					paint(styleGood, "+"), e.Agent,
					paint(scoreStyle(e.Percentage), fmt.Sprintf("%.1f%%", e.Percentage)), note)
			case events.AgentFailed:
				fmt.Printf("   %s %-20s %s\n",
					paint(styleBad, "x"), e.Agent, e.Error)
			case events.AgentSkipped:
				fmt.Printf("   %s %-20s missing %s\n",
					paint(styleWarn, "-"), e.Agent, strings.Join(e.Missing, ", "))
			case events.RevisionRequested:
				fmt.Printf("   %s %-20s revision %d: %s\n",
					paint(styleWarn, "~"), e.Agent, e.Cycle, strings.Join(e.Violations, "; "))
			case events.CeilingReached:
				fmt.Printf("   %s %-20s accepted after %d revision cycles\n",
					paint(styleWarn, "~"), e.Agent, e.Cycles)
			}
		}
	}()

	return done
}

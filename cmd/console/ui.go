package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/pkg/investigation"
	"github.com/datableed/decision-engine/pkg/puzzle"
	"github.com/datableed/decision-engine/pkg/realtime"
)

const PlaceHolderText = "Type a command (help for commands)..."

// uiMode selects which command grammar the input line uses. Mechanic modes
// are entered when a chosen decision dispatches a session and exited when
// that session ends.
type uiMode int

const (
	modeExplore uiMode = iota
	modeRealtime
	modeInvestigation
	modePuzzle
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api       *apiClient
	character CharacterSummary

	viewport viewport.Model
	textarea textarea.Model
	ready    bool
	width    int
	height   int

	mode uiMode
	log  []string

	currentArea int
	decisions   []engine.PresentedDecision

	rtSessionID uuid.UUID
	rtPhase     *engine.PhaseView
	rtDeadline  time.Time

	invSession  *investigation.Session
	invTools    []investigation.Tool
	invAnalyzed int

	puzzle *puzzle.Puzzle
}

type apiResultMsg struct {
	lines []string
	err   error
}

type decisionsMsg struct {
	area      int
	decisions []engine.PresentedDecision
	lines     []string
}

type dispatchMsg struct {
	dispatch *engine.Dispatch
}

type phaseMsg struct {
	sessionID uuid.UUID
	phase     *engine.PhaseView
}

type realtimeResultMsg struct {
	result *engine.RealtimeResult
}

type outcomeMsg struct {
	outcome *realtime.Outcome
}

type analysisMsg struct {
	lines []string
}

type puzzleEvalMsg struct {
	eval *puzzle.Evaluation
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(api *apiClient, character CharacterSummary) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	vp := viewport.New(50, 20)
	vp.MouseWheelEnabled = true

	ui := ConsoleUI{
		api:       api,
		character: character,
		textarea:  ta,
		viewport:  vp,
	}
	ui.log = []string{
		titleStyle.Render("Data_Bleed: " + character.Title),
		narratorStyle.Render("Domain: " + character.ScamDomain),
		"",
		"Commands: go <area>, choose <n>, progress, help, quit",
	}
	return ui
}

func (ui ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (ui ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)
	ui.textarea, taCmd = ui.textarea.Update(msg)
	ui.viewport, vpCmd = ui.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ui.width = msg.Width
		ui.height = msg.Height
		ui.viewport.Width = msg.Width
		ui.viewport.Height = msg.Height - 3
		ui.textarea.SetWidth(msg.Width - 4)
		ui.ready = true
		ui.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return ui, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(ui.textarea.Value())
			ui.textarea.Reset()
			if input == "" {
				return ui, tea.Batch(taCmd, vpCmd)
			}
			if input == "quit" || input == "exit" {
				return ui, tea.Quit
			}
			ui.append(userStyle.Render("> " + input))
			cmd := ui.handleInput(input)
			return ui, tea.Batch(taCmd, vpCmd, cmd)
		}

	case apiResultMsg:
		if msg.err != nil {
			ui.append(errorStyle.Render(msg.err.Error()))
		} else {
			ui.append(msg.lines...)
		}

	case decisionsMsg:
		ui.currentArea = msg.area
		ui.decisions = msg.decisions
		ui.append(msg.lines...)

	case dispatchMsg:
		return ui.applyDispatch(msg.dispatch, taCmd, vpCmd)

	case phaseMsg:
		ui.mode = modeRealtime
		ui.rtSessionID = msg.sessionID
		ui.rtPhase = msg.phase
		ui.rtDeadline = time.Now().Add(time.Duration(msg.phase.TimeAllowedSeconds * float64(time.Second)))
		lines := []string{narratorStyle.Render(msg.phase.Prompt)}
		for i, opt := range msg.phase.Options {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, opt.Text))
		}
		lines = append(lines, warnStyle.Render(fmt.Sprintf("Answer with a number. %.0f seconds.", msg.phase.TimeAllowedSeconds)))
		ui.append(lines...)
		return ui, tea.Batch(taCmd, vpCmd, tickEverySecond())

	case realtimeResultMsg:
		ui.append(ui.renderRealtimeResult(msg.result)...)
		if msg.result.Status.Terminal() {
			ui.mode = modeExplore
			ui.rtPhase = nil
			return ui, tea.Batch(taCmd, vpCmd, ui.fetchOutcome())
		}
		return ui, tea.Batch(taCmd, vpCmd, ui.fetchPhase(ui.rtSessionID))

	case outcomeMsg:
		ui.append(ui.renderOutcome(msg.outcome)...)

	case analysisMsg:
		ui.invAnalyzed++
		ui.append(msg.lines...)

	case puzzleEvalMsg:
		ui.append(ui.renderEvaluation(msg.eval)...)
		if msg.eval.Completed {
			ui.mode = modeExplore
			ui.puzzle = nil
		}

	case tickMsg:
		if ui.mode == modeRealtime && ui.rtPhase != nil {
			if time.Now().After(ui.rtDeadline) {
				return ui, ui.fireTimeout()
			}
			ui.refreshViewport()
			return ui, tea.Batch(taCmd, vpCmd, tickEverySecond())
		}
	}

	return ui, tea.Batch(taCmd, vpCmd)
}

func tickEverySecond() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (ui *ConsoleUI) append(lines ...string) {
	ui.log = append(ui.log, lines...)
	ui.refreshViewport()
}

func (ui *ConsoleUI) refreshViewport() {
	content := strings.Join(ui.log, "\n")
	if ui.mode == modeRealtime && ui.rtPhase != nil {
		remaining := time.Until(ui.rtDeadline).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		content += "\n" + warnStyle.Render(fmt.Sprintf("[%.0fs remaining]", remaining))
	}
	if ui.width > 0 {
		content = wordwrap.String(content, ui.width-2)
	}
	ui.viewport.SetContent(content)
	ui.viewport.GotoBottom()
}

// applyDispatch enters the mechanic mode for a dispatched decision.
func (ui ConsoleUI) applyDispatch(d *engine.Dispatch, cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	switch {
	case d.Applied:
		ui.append(narratorStyle.Render("Noted. The story shifts around your choice."))

	case d.Realtime != nil:
		ui.rtSessionID = d.Realtime.ID
		ui.append(warnStyle.Render("Incoming. No time to think it over."))
		return ui, tea.Batch(append(cmds, ui.fetchPhase(d.Realtime.ID))...)

	case d.Investigation != nil:
		ui.mode = modeInvestigation
		ui.invSession = d.Investigation
		ui.invTools = d.Tools
		lines := []string{narratorStyle.Render("Investigation open. Evidence on the table:")}
		for _, item := range d.Investigation.Evidence {
			lines = append(lines, fmt.Sprintf("  %s (%s): %s", item.ID, item.Type, item.Title))
		}
		lines = append(lines, "Tools:")
		for _, tool := range d.Tools {
			lines = append(lines, fmt.Sprintf("  %s: %s", tool.ID, tool.Name))
		}
		lines = append(lines, "Commands: analyze <evidence_id> <tool_id>, compile")
		ui.append(lines...)

	case d.Puzzle != nil:
		ui.mode = modePuzzle
		ui.puzzle = d.Puzzle
		lines := []string{narratorStyle.Render(d.Puzzle.Setup)}
		for i, ch := range d.Puzzle.Challenges {
			lines = append(lines, fmt.Sprintf("%d) %s", i+1, ch.Question))
			for j, opt := range ch.Options {
				lines = append(lines, fmt.Sprintf("   %d. %s", j+1, opt))
			}
		}
		lines = append(lines, "Commands: answer <n> <n> ..., hint")
		ui.append(lines...)
	}
	return ui, tea.Batch(cmds...)
}

// handleInput parses a command in the current mode. Mutates UI state
// synchronously; network calls run in a tea.Cmd.
func (ui *ConsoleUI) handleInput(input string) tea.Cmd {
	fields := strings.Fields(input)
	verb := strings.ToLower(fields[0])

	switch ui.mode {
	case modeRealtime:
		return ui.handleRealtimeInput(verb)
	case modeInvestigation:
		return ui.handleInvestigationInput(verb, fields)
	case modePuzzle:
		return ui.handlePuzzleInput(verb, fields)
	}

	switch verb {
	case "help":
		ui.append(
			"go <area>      - move to an area and list its decisions",
			"choose <n>     - choose a listed decision",
			"progress       - show story progress",
			"quit           - leave the story",
		)
		return nil

	case "go":
		if len(fields) < 2 {
			ui.append(errorStyle.Render("Usage: go <area>"))
			return nil
		}
		area, err := strconv.Atoi(fields[1])
		if err != nil {
			ui.append(errorStyle.Render("Area must be a number"))
			return nil
		}
		return ui.goArea(area)

	case "choose":
		if len(fields) < 2 {
			ui.append(errorStyle.Render("Usage: choose <n>"))
			return nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(ui.decisions) {
			ui.append(errorStyle.Render("No such decision"))
			return nil
		}
		return ui.chooseDecision(ui.decisions[n-1].ID)

	case "progress":
		return ui.showProgress()
	}

	ui.append(errorStyle.Render("Unknown command. Try: help"))
	return nil
}

func (ui *ConsoleUI) goArea(area int) tea.Cmd {
	api, character := ui.api, ui.character.Name
	return func() tea.Msg {
		if _, err := api.visitArea(character, area); err != nil {
			return apiResultMsg{err: err}
		}
		decisions, err := api.presentDecisions(character, area)
		if err != nil {
			return apiResultMsg{err: err}
		}
		lines := []string{fmt.Sprintf("Entered area %d.", area)}
		if len(decisions) == 0 {
			lines = append(lines, "Nothing to decide here.")
		}
		for i, d := range decisions {
			if d.Framing != "" {
				lines = append(lines, narratorStyle.Render(d.Framing))
			}
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, d.Text))
		}
		return decisionsMsg{area: area, decisions: decisions, lines: lines}
	}
}

func (ui *ConsoleUI) showProgress() tea.Cmd {
	api, character := ui.api, ui.character.Name
	return func() tea.Msg {
		p, err := api.getProgress(character)
		if err != nil {
			return apiResultMsg{err: err}
		}
		lines := []string{
			fmt.Sprintf("Area %d, %d areas visited, %d triggers completed.",
				p.CurrentArea, len(p.VisitedAreas), len(p.CompletedTriggers)),
		}
		for k, v := range p.StoryState {
			lines = append(lines, fmt.Sprintf("  %s: %.1f", k, v))
		}
		return apiResultMsg{lines: lines}
	}
}

func (ui *ConsoleUI) chooseDecision(decisionID string) tea.Cmd {
	api, character := ui.api, ui.character.Name
	return func() tea.Msg {
		dispatch, err := api.choose(character, decisionID)
		if err != nil {
			return apiResultMsg{err: err}
		}
		return dispatchMsg{dispatch: dispatch}
	}
}

func (ui *ConsoleUI) fetchPhase(sessionID uuid.UUID) tea.Cmd {
	api := ui.api
	return func() tea.Msg {
		phase, err := api.currentPhase(sessionID)
		if err != nil {
			return apiResultMsg{err: err}
		}
		return phaseMsg{sessionID: sessionID, phase: phase}
	}
}

func (ui *ConsoleUI) fetchOutcome() tea.Cmd {
	api, sessionID := ui.api, ui.rtSessionID
	return func() tea.Msg {
		outcome, err := api.realtimeOutcome(sessionID)
		if err != nil {
			return apiResultMsg{err: err}
		}
		return outcomeMsg{outcome: outcome}
	}
}

func (ui *ConsoleUI) handleRealtimeInput(verb string) tea.Cmd {
	n, err := strconv.Atoi(verb)
	if err != nil || ui.rtPhase == nil || n < 1 || n > len(ui.rtPhase.Options) {
		ui.append(errorStyle.Render("Pick an option number before the timer runs out."))
		return nil
	}
	option := ui.rtPhase.Options[n-1]
	remaining := time.Until(ui.rtDeadline).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	api, sessionID := ui.api, ui.rtSessionID
	ui.rtPhase = nil
	return func() tea.Msg {
		result, err := api.realtimeDecision(sessionID, option.ID, remaining)
		if err != nil {
			return apiResultMsg{err: err}
		}
		return realtimeResultMsg{result: result}
	}
}

func (ui *ConsoleUI) fireTimeout() tea.Cmd {
	api, sessionID := ui.api, ui.rtSessionID
	ui.rtPhase = nil
	ui.append(warnStyle.Render("Time ran out."))
	return func() tea.Msg {
		result, err := api.realtimeTimeout(sessionID)
		if err != nil {
			return apiResultMsg{err: err}
		}
		return realtimeResultMsg{result: result}
	}
}

func (ui *ConsoleUI) renderRealtimeResult(result *engine.RealtimeResult) []string {
	var lines []string
	if result.Record.TimedOut {
		lines = append(lines, errorStyle.Render("The moment passed without a decision."))
	} else {
		lines = append(lines, fmt.Sprintf("Decision registered (%s, timing %.0f%%).",
			result.Record.Correctness, result.Record.TimingScore*100))
	}
	if result.Status.Terminal() {
		lines = append(lines, narratorStyle.Render("The line goes quiet."))
	}
	return lines
}

func (ui *ConsoleUI) renderOutcome(outcome *realtime.Outcome) []string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Performance: %s (avg timing %.0f%%)",
			outcome.Performance, outcome.AverageTimingScore*100)),
	}
	for _, s := range outcome.Strengths {
		lines = append(lines, "  + "+s)
	}
	for _, l := range outcome.Lessons {
		lines = append(lines, warnStyle.Render("  ! "+l))
	}
	if outcome.Statistic != "" {
		lines = append(lines, narratorStyle.Render(outcome.Statistic))
	}
	return lines
}

func (ui *ConsoleUI) handleInvestigationInput(verb string, fields []string) tea.Cmd {
	switch verb {
	case "analyze":
		if len(fields) < 3 {
			ui.append(errorStyle.Render("Usage: analyze <evidence_id> <tool_id>"))
			return nil
		}
		api, sessionID := ui.api, ui.invSession.ID
		evidenceID, toolID := fields[1], fields[2]
		return func() tea.Msg {
			outcome, err := api.analyzeEvidence(sessionID, evidenceID, toolID)
			if err != nil {
				return apiResultMsg{err: err}
			}
			lines := make([]string, 0, len(outcome.Result.Findings)+2)
			for _, f := range outcome.Result.Findings {
				lines = append(lines, "  "+f)
			}
			for _, r := range outcome.Result.RiskIndicators {
				lines = append(lines, errorStyle.Render("  ! "+r))
			}
			lines = append(lines,
				narratorStyle.Render(outcome.Feedback),
				fmt.Sprintf("Investigation %.0f%% complete.", outcome.Progress.CompletionPercentage))
			return analysisMsg{lines: lines}
		}

	case "compile":
		// The console submits every objective as substantiated once any
		// evidence has been analyzed; grading happens server-side.
		findings := make([]investigation.Finding, 0, len(ui.invSession.Objectives))
		analyzed := ui.invAnalyzed > 0
		for _, o := range ui.invSession.Objectives {
			findings = append(findings, investigation.Finding{
				ObjectiveID: o.ID,
				Description: o.Description,
				Correct:     analyzed,
			})
		}
		api, sessionID := ui.api, ui.invSession.ID
		ui.mode = modeExplore
		ui.invSession = nil
		ui.invTools = nil
		ui.invAnalyzed = 0
		return func() tea.Msg {
			compilation, err := api.compileFindings(sessionID, findings)
			if err != nil {
				return apiResultMsg{err: err}
			}
			lines := []string{fmt.Sprintf("Accuracy: %.0f%%", compilation.AccuracyScore)}
			for _, r := range compilation.Recommendations {
				lines = append(lines, "  "+r)
			}
			return apiResultMsg{lines: lines}
		}
	}

	ui.append(errorStyle.Render("Commands: analyze <evidence_id> <tool_id>, compile"))
	return nil
}

func (ui *ConsoleUI) handlePuzzleInput(verb string, fields []string) tea.Cmd {
	switch verb {
	case "hint":
		api, puzzleID := ui.api, ui.puzzle.ID
		return func() tea.Msg {
			hint, err := api.requestHint(puzzleID)
			if err != nil {
				return apiResultMsg{err: err}
			}
			if !hint.Available {
				return apiResultMsg{lines: []string{"No more hints."}}
			}
			return apiResultMsg{lines: []string{
				narratorStyle.Render(fmt.Sprintf("Hint %d: %s", hint.HintNumber, hint.Hint)),
			}}
		}

	case "answer":
		// answer 1 3 2 4: one option number per challenge, in order.
		if len(fields)-1 != len(ui.puzzle.Challenges) {
			ui.append(errorStyle.Render(fmt.Sprintf("Expected %d answers.", len(ui.puzzle.Challenges))))
			return nil
		}
		answers := make(map[string]int, len(ui.puzzle.Challenges))
		for i, ch := range ui.puzzle.Challenges {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil || n < 1 || n > len(ch.Options) {
				ui.append(errorStyle.Render("Answers must be option numbers."))
				return nil
			}
			answers[ch.ID] = n - 1
		}
		api, puzzleID := ui.api, ui.puzzle.ID
		return func() tea.Msg {
			eval, err := api.answerPuzzle(puzzleID, answers)
			if err != nil {
				return apiResultMsg{err: err}
			}
			return puzzleEvalMsg{eval: eval}
		}
	}

	ui.append(errorStyle.Render("Commands: answer <n> <n> ..., hint"))
	return nil
}

func (ui *ConsoleUI) renderEvaluation(eval *puzzle.Evaluation) []string {
	lines := []string{
		fmt.Sprintf("Score: %.0f%% (%d/%d correct)",
			eval.Score*100, eval.Analysis.CorrectCount, eval.Analysis.TotalChallenges),
		narratorStyle.Render(eval.Feedback.Summary),
	}
	if eval.Feedback.TacticExplanation != "" {
		lines = append(lines, eval.Feedback.TacticExplanation)
	}
	for _, imp := range eval.Feedback.Improvements {
		lines = append(lines, warnStyle.Render("  ! "+imp))
	}
	if eval.Feedback.RealWorld != "" {
		lines = append(lines, narratorStyle.Render(eval.Feedback.RealWorld))
	}
	if !eval.Completed {
		lines = append(lines, "Not quite. Try again: answer <n> <n> ...")
	}
	return lines
}

func (ui ConsoleUI) View() string {
	if !ui.ready {
		return "Loading..."
	}
	return ui.viewport.View() + "\n" + ui.textarea.View()
}

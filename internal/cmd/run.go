package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lhartley/sparring/internal/agent"
	"github.com/lhartley/sparring/internal/budget"
	"github.com/lhartley/sparring/internal/config"
	"github.com/lhartley/sparring/internal/display"
	"github.com/lhartley/sparring/internal/ending"
	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/event"
	"github.com/lhartley/sparring/internal/flow"
	"github.com/lhartley/sparring/internal/interact"
	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/prompts"
	"github.com/lhartley/sparring/internal/search"
	"github.com/lhartley/sparring/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a debate",
	Long: `Run a debate between the two configured agents on the given topic.

While the debate is running you can type at any time:
  /quit or /exit  end the session
  /clear          reset the conversation to the opening message
  anything else   interrupt the current turn and inject your message`,
	RunE: runRun,
}

var (
	runTopic    string
	runTurns    int
	runAuto     bool
	runPrompts  string
	runNoSearch bool
	runNoTools  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runTopic, "topic", "t", "", "debate topic (required)")
	runCmd.Flags().IntVar(&runTurns, "turns", 0, "maximum number of turns (0 = no cap)")
	runCmd.Flags().BoolVar(&runAuto, "auto", false, "run unattended, without keyboard control")
	runCmd.Flags().StringVar(&runPrompts, "prompts", "", "agent prompts YAML file")
	runCmd.Flags().BoolVar(&runNoSearch, "no-search", false, "disable web search injection")
	runCmd.Flags().BoolVar(&runNoTools, "no-tools", false, "disable context update injection")
	_ = runCmd.MarkFlagRequired("topic")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags win over the config file.
	if cmd.Flags().Changed("turns") {
		cfg.Conversation.MaxTurns = runTurns
	}
	if runPrompts != "" {
		cfg.Conversation.PromptsFile = runPrompts
	}
	if runNoSearch {
		cfg.Search.Enabled = false
	}
	if runNoTools {
		cfg.Tools.Enabled = false
	}

	promptFile, err := loadPrompts(cfg)
	if err != nil {
		return err
	}
	// Prompt file settings fill in whatever the flags left alone.
	if promptFile.Settings.MaxTurns != nil && !cmd.Flags().Changed("turns") {
		cfg.Conversation.MaxTurns = *promptFile.Settings.MaxTurns
	}
	if promptFile.Settings.TurnIntervalMs != nil {
		cfg.Conversation.TurnIntervalMs = *promptFile.Settings.TurnIntervalMs
	}
	if promptFile.Settings.TransitionTurns != nil {
		cfg.Ending.TransitionTurns = *promptFile.Settings.TransitionTurns
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Dir:        cfg.Log.Dir,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	client, err := agent.NewClient(agent.ClientConfig{
		APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		BaseURL:   cfg.API.BaseURL,
		Model:     cfg.API.Model,
		MaxTokens: cfg.API.MaxTokens,
	}, logger)
	if err != nil {
		return err
	}

	sched, gate, err := buildScheduler(cfg, client, promptFile, logger)
	if err != nil {
		return err
	}
	if gate != nil {
		defer gate.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(display.Banner(runTopic, promptFile.Agents.Supporter.Name, promptFile.Agents.Challenger.Name))

	rec, err := sched.Run(ctx, runTopic)
	if rec != nil && rec.Summary != "" {
		fmt.Println()
		fmt.Println(display.Summary(rec.Summary))
	}
	if err != nil {
		if apperrors.Is(err, context.Canceled) {
			fmt.Println(display.System("session interrupted"))
			return nil
		}
		return err
	}
	return nil
}

// loadPrompts returns the agent definitions from the configured file,
// or the built-in defaults.
func loadPrompts(cfg *config.Config) (*prompts.File, error) {
	if cfg.Conversation.PromptsFile == "" {
		return prompts.Default(), nil
	}
	return prompts.Load(cfg.Conversation.PromptsFile)
}

// buildScheduler wires the full debate stack from the configuration.
func buildScheduler(cfg *config.Config, client *agent.Client, promptFile *prompts.File, logger *logging.Logger) (*flow.Scheduler, *interact.Gate, error) {
	nameA := promptFile.Agents.Supporter.Name
	nameB := promptFile.Agents.Challenger.Name

	onText := func(text string) { fmt.Print(text) }
	agentA := agent.NewResponder(client, agent.ResponderConfig{
		Name:         nameA,
		SystemPrompt: promptFile.Agents.Supporter.SystemPrompt,
		SearchTool:   cfg.Search.Enabled,
		OnText:       onText,
	})
	agentB := agent.NewResponder(client, agent.ResponderConfig{
		Name:         nameB,
		SystemPrompt: promptFile.Agents.Challenger.SystemPrompt,
		SearchTool:   cfg.Search.Enabled,
		OnText:       onText,
	})

	tracker := budget.New(budget.Config{
		MaxContext:       cfg.Budget.MaxContext,
		WarningThreshold: cfg.Budget.WarningThreshold,
		TargetAfterTrim:  cfg.Budget.TargetAfterTrim,
		MinKeepRecent:    cfg.Budget.MinKeepRecent,
		MaxTrimCount:     cfg.Budget.MaxTrimCount,
	}, logger)

	detectorOpts := []ending.Option{
		ending.WithTopic(runTopic),
		ending.WithLogger(logger),
	}
	if cfg.Ending.UseScorer {
		detectorOpts = append(detectorOpts, ending.WithScorer(agent.NewScorer(client)))
	}
	detector := ending.New(ending.Config{
		Enabled:               cfg.Ending.Enabled,
		Marker:                cfg.Ending.Marker,
		MinTurnsBeforeEnd:     cfg.Ending.MinTurnsBeforeEnd,
		AnalysisEnabled:       cfg.Ending.Enabled,
		AnalysisMinTurns:      cfg.Ending.AnalysisMinTurns,
		AnalysisEndThreshold:  cfg.Ending.EndThreshold,
		AnalysisWarnThreshold: cfg.Ending.WarnThreshold,
		CheckTurns:            cfg.Ending.CheckTurns,
		MinResponseLength:     cfg.Ending.MinResponseLength,
		TransitionTurns:       cfg.Ending.TransitionTurns,
	}, detectorOpts...)

	store, err := session.NewFileStore(cfg.HistoryDir(), logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []flow.Option{
		flow.WithLogger(logger),
		flow.WithStore(store),
		flow.WithSummarizer(agent.NewSummarizer(client)),
		flow.WithCallbacks(flow.Callbacks{
			OnTurnStart: func(turn int, speaker string) {
				fmt.Println()
				fmt.Println(display.TurnHeader(turn, speaker, speaker == nameA))
			},
			OnSystem: func(msg string) {
				fmt.Println()
				fmt.Println(display.System(msg))
			},
		}),
	}

	schedCfg := flow.Config{
		MaxTurns:     cfg.Conversation.MaxTurns,
		TurnInterval: cfg.Conversation.TurnInterval(),
	}

	if cfg.Search.Enabled && cfg.Search.Endpoint != "" {
		provider := search.NewProvider(cfg.Search.Endpoint, cfg.Search.MaxResults, logger)
		history, err := search.NewHistory(cfg.SearchHistoryFile(), cfg.Search.HistoryLimit, logger)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, flow.WithSearch(provider, history))
		schedCfg.SearchInterval = cfg.Search.Interval
	}
	if cfg.Tools.Enabled {
		opts = append(opts, flow.WithAnalyzer(agent.NewAnalyzer(runTopic, logger)))
		schedCfg.ToolInterval = cfg.Tools.Interval
	}

	var gate *interact.Gate
	if !runAuto {
		gate, err = interact.New(logger)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, flow.WithGate(gate))
	}

	sched := flow.New(schedCfg,
		flow.Participant{Name: nameA, Agent: agentA},
		flow.Participant{Name: nameB, Agent: agentB},
		tracker, detector, opts...)

	subscribeDisplay(sched.Bus(), cfg.Budget.MaxContext)
	return sched, gate, nil
}

// subscribeDisplay renders scheduler events to the terminal.
func subscribeDisplay(bus *event.Bus, maxContext int) {
	bus.Subscribe("turn.completed", func(e event.Event) {
		ev := e.(event.TurnCompletedEvent)
		fmt.Println()
		fmt.Println(display.TokenProgress(ev.TotalTokens, maxContext))
	})
	bus.Subscribe("budget.warning", func(e event.Event) {
		ev := e.(event.BudgetWarningEvent)
		fmt.Println(display.System(fmt.Sprintf("token budget warning: %d tokens, threshold %d", ev.TotalTokens, ev.Threshold)))
	})
	bus.Subscribe("budget.trimmed", func(e event.Event) {
		ev := e.(event.BudgetTrimmedEvent)
		fmt.Println(display.System(fmt.Sprintf("history trimmed: %d messages removed, %d -> %d tokens", ev.Removed, ev.TokensBefore, ev.TokensAfter)))
	})
	bus.Subscribe("end.proposed", func(e event.Event) {
		ev := e.(event.EndProposedEvent)
		fmt.Println()
		fmt.Println(display.EndProposed(ev.Agent, ev.TransitionTurns))
	})
	bus.Subscribe("search.performed", func(e event.Event) {
		ev := e.(event.SearchPerformedEvent)
		if ev.Success {
			fmt.Println(display.System("web search: " + ev.Query))
		}
	})
	bus.Subscribe("session.completed", func(e event.Event) {
		ev := e.(event.SessionCompletedEvent)
		fmt.Println()
		msg := fmt.Sprintf("session over after %d turns (%s)", ev.TurnCount, ev.Reason)
		if ev.Location != "" {
			msg += ", saved to " + ev.Location
		}
		fmt.Println(display.System(msg))
	})
}

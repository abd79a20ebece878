package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Pheglovog/travel-planner-agent/agent/agents"
	"github.com/Pheglovog/travel-planner-agent/agent/contract"
	"github.com/Pheglovog/travel-planner-agent/agent/dispatcher"
	llmx "github.com/Pheglovog/travel-planner-agent/agent/llm"
	toolx "github.com/Pheglovog/travel-planner-agent/agent/tool"
	configx "github.com/Pheglovog/travel-planner-agent/pkg/config"
	_ "github.com/Pheglovog/travel-planner-agent/pkg/logger/autoload"
	storex "github.com/Pheglovog/travel-planner-agent/store"
)

type TripConfig struct {
	Destination    string  `envconfig:"DESTINATION" required:"true"`
	Days           int     `envconfig:"DAYS" default:"3"`
	BudgetAmount   float64 `envconfig:"BUDGET_AMOUNT" default:"5000"`
	BudgetCurrency string  `envconfig:"BUDGET_CURRENCY" default:"CNY"`
	Preferences    string  `envconfig:"PREFERENCES"`
	Origin         string  `envconfig:"ORIGIN"`
	Tasks          string  `envconfig:"TASKS"`
}

func main() {
	tripCfg := configx.MustNew[TripConfig]("TRIP")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	storeCfg := configx.MustNew[storex.Config]("PLAN_STORE")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := contract.NewPlanningRequest(
		tripCfg.Destination,
		tripCfg.Days,
		contract.Money{Amount: tripCfg.BudgetAmount, Currency: tripCfg.BudgetCurrency},
		splitCSV(tripCfg.Preferences),
		tripCfg.Origin,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid trip request")
	}

	registry, err := agents.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build agent registry")
	}

	invoker := toolx.NewInvoker()

	var opts []dispatcher.Option
	if strings.TrimSpace(storeCfg.DSN) != "" {
		planStore, err := storex.New(*storeCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open plan store")
		}
		defer planStore.Close()
		if err := planStore.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to init plan store")
		}
		opts = append(opts, dispatcher.WithPlanStore(planStore))
	}

	disp, err := dispatcher.New(registry, invoker, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dispatcher")
	}

	tasks, err := parseTasks(tripCfg.Tasks)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid task selection")
	}

	resp, err := disp.Dispatch(ctx, req, tasks...)
	if err != nil {
		log.Fatal().Err(err).Msg("dispatch failed")
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode response")
	}
	fmt.Println(string(out))
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTasks(s string) ([]contract.TaskType, error) {
	raw := splitCSV(s)
	tasks := make([]contract.TaskType, 0, len(raw))
	for _, r := range raw {
		task, err := contract.ParseTaskType(r)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

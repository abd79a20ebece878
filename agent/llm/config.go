package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
	openrouterx "github.com/Pheglovog/travel-planner-agent/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	PlannerModel         string  `envconfig:"PLANNER_MODEL" split_words:"true"`
	ChecklistModel       string  `envconfig:"CHECKLIST_MODEL" split_words:"true"`
	BudgetModel          string  `envconfig:"BUDGET_MODEL" split_words:"true"`
	PlannerTemperature   float32 `envconfig:"PLANNER_TEMPERATURE" split_words:"true" default:"-1"`
	ChecklistTemperature float32 `envconfig:"CHECKLIST_TEMPERATURE" split_words:"true" default:"-1"`
	BudgetTemperature    float32 `envconfig:"BUDGET_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contract.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contract.ErrValidation)
	}
	return nil
}

// OpenRouterFor picks the model and temperature for one task, falling back to
// the shared defaults.
func (c Config) OpenRouterFor(task contract.TaskType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch task {
	case contract.TaskPlanner:
		if v := strings.TrimSpace(c.PlannerModel); v != "" {
			modelName = v
		}
		if c.PlannerTemperature >= 0 {
			temp = c.PlannerTemperature
		}
	case contract.TaskChecklist:
		if v := strings.TrimSpace(c.ChecklistModel); v != "" {
			modelName = v
		}
		if c.ChecklistTemperature >= 0 {
			temp = c.ChecklistTemperature
		}
	case contract.TaskBudget:
		if v := strings.TrimSpace(c.BudgetModel); v != "" {
			modelName = v
		}
		if c.BudgetTemperature >= 0 {
			temp = c.BudgetTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

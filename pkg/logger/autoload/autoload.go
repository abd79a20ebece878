// Package autoload initializes the global logger from the LOG_* environment
// on import.
package autoload

import (
	configx "github.com/Pheglovog/travel-planner-agent/pkg/config"
	logx "github.com/Pheglovog/travel-planner-agent/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}

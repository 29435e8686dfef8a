package e2e

import (
	"github.com/cucumber/godog"

	"estate/e2e/steps/common"
	"estate/e2e/steps/registry"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (status and field assertions)
	common.RegisterSteps(ctx, tc)

	// Register registry and marketplace steps
	registry.RegisterSteps(ctx, tc)
}

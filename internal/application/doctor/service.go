// Package doctor runs environment diagnostics before the daemon starts.
package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

// Service runs the diagnostic checks. The probe funcs are injected so the
// service stays independent of the concrete hotkey, clipboard and storage
// adapters.
type Service struct {
	ConfigProvider  ports.ConfigProvider
	ValidateBinding func(binding string) error
	ClipboardProbe  func() error
	SessionProbe    func() error
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("%d operations, %d models", len(cfg.Operations), len(cfg.Provider.Models))))

	if s.ValidateBinding != nil {
		if err := s.ValidateBinding(cfg.Hotkey); err != nil {
			checks = append(checks, fail("Hotkey binding", err.Error()))
		} else {
			checks = append(checks, ok("Hotkey binding", cfg.Hotkey))
		}
	}

	checks = append(checks, apiCheck(cfg))

	if s.ClipboardProbe != nil {
		if err := s.ClipboardProbe(); err != nil {
			checks = append(checks, fail("Clipboard", err.Error()))
		} else {
			checks = append(checks, ok("Clipboard", "read/write available"))
		}
	}

	if s.SessionProbe != nil {
		if err := s.SessionProbe(); err != nil {
			checks = append(checks, warn("Session store", err.Error()))
		} else {
			checks = append(checks, ok("Session store", "reachable"))
		}
	}

	return domain.HealthReport{Checks: checks}, nil
}

// apiCheck verifies a credential exists for every model the config can
// route to. Models pointing at a local endpoint need none.
func apiCheck(cfg domain.Config) domain.HealthCheck {
	for _, name := range []string{cfg.Provider.TransformModel, cfg.Provider.ChatModel} {
		model, err := cfg.ModelByName(name)
		if err != nil {
			return fail("API keys", err.Error())
		}
		if model.AuthEnvVar == "" {
			continue
		}
		if os.Getenv(model.AuthEnvVar) == "" {
			return warn("API keys", fmt.Sprintf("%s not set (needed by model %q)", model.AuthEnvVar, model.Name))
		}
	}
	return ok("API keys", "set for the active models")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}

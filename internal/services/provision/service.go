// Package provision orchestrates installations on a target host.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/deploy"
	"github.com/fgeck/hostprep/internal/services/detect"
	"github.com/fgeck/hostprep/internal/services/dispatch"
	"github.com/fgeck/hostprep/internal/services/host"
	"github.com/fgeck/hostprep/internal/services/nginx"
	"github.com/fgeck/hostprep/internal/services/progress"
	"github.com/fgeck/hostprep/internal/services/telegram"
	"github.com/fgeck/hostprep/internal/services/wol"
	"github.com/rs/zerolog"
)

// Orchestration names.
const (
	ActionDocker = "docker"
	ActionNginx  = "nginx"
	ActionSite   = "site"
	ActionCheck  = "check"
)

// Failure stages that are not script steps.
const (
	StageWOL     = "wol"
	StageConnect = "connect"
	StageRender  = "render"
	StageDeploy  = "deploy"
)

var (
	// ErrDeployFailed is returned when the site file could not be placed.
	ErrDeployFailed = errors.New("site configuration deployment failed")
	// ErrConfigTest is returned when nginx rejects the merged configuration.
	ErrConfigTest = errors.New("nginx configuration test failed")
)

// Service defines the interface for provisioning orchestrations.
type Service interface {
	InstallDocker(ctx context.Context, cfg models.Config) (*models.ProvisionResult, error)
	InstallNginx(ctx context.Context, cfg models.Config) (*models.ProvisionResult, error)
	SetupSite(ctx context.Context, cfg models.Config) (*models.ProvisionResult, error)
	Check(ctx context.Context, cfg models.Config) (*models.ProvisionResult, error)
}

// Impl implements the provision Service interface.
type Impl struct {
	connector   Connector
	detector    detect.Service
	dispatcher  dispatch.Service
	deployer    deploy.Service
	wolSvc      wol.Service
	telegramSvc telegram.Service
	printer     *progress.Printer
	logger      zerolog.Logger
}

// New creates a new provision service.
func New(logger zerolog.Logger, printer *progress.Printer) *Impl {
	return &Impl{
		connector:   NewConnector(logger),
		detector:    detect.New(logger),
		dispatcher:  dispatch.New(logger, printer),
		deployer:    deploy.New(logger),
		wolSvc:      wol.New(logger),
		telegramSvc: telegram.New(logger),
		printer:     printer,
		logger:      logger,
	}
}

// NewWithServices creates a new provision service with custom services (for testing).
func NewWithServices(
	logger zerolog.Logger,
	printer *progress.Printer,
	connector Connector,
	detector detect.Service,
	dispatcher dispatch.Service,
	deployer deploy.Service,
	wolSvc wol.Service,
	telegramSvc telegram.Service,
) *Impl {
	return &Impl{
		connector:   connector,
		detector:    detector,
		dispatcher:  dispatcher,
		deployer:    deployer,
		wolSvc:      wolSvc,
		telegramSvc: telegramSvc,
		printer:     printer,
		logger:      logger,
	}
}

// job is the OS-specific part of an orchestration. It records executed steps
// and, on failure, the failing stage in result.
type job func(ctx context.Context, h host.Host, result *models.ProvisionResult) error

// InstallDocker installs, starts and enables the Docker engine and adds the
// session user to the docker group.
func (s *Impl) InstallDocker(ctx context.Context, cfg models.Config) (*models.ProvisionResult, error) {
	return s.provision(ctx, cfg, ActionDocker, "Docker installed successfully", s.installDocker)
}

// InstallNginx installs, starts and enables nginx.
func (s *Impl) InstallNginx(ctx context.Context, cfg models.Config) (*models.ProvisionResult, error) {
	return s.provision(ctx, cfg, ActionNginx, "Nginx installed successfully", s.installNginx)
}

// SetupSite deploys a reverse-proxy site for cfg.Site and reloads nginx.
func (s *Impl) SetupSite(ctx context.Context, cfg models.Config) (*models.ProvisionResult, error) {
	startTime := time.Now()
	content, err := nginx.Render(cfg.Site)
	if err != nil {
		result := &models.ProvisionResult{Action: ActionSite, FailedStep: StageRender, Error: err}
		result.Duration = time.Since(startTime)
		s.logger.Error().Err(err).Str("action", ActionSite).Msg("invalid site configuration")
		s.printer.Failure("Invalid site configuration")
		if cfg.Telegram != nil {
			s.sendNotification(ctx, *cfg.Telegram, result, startTime)
		}
		return result, err
	}

	return s.provision(ctx, cfg, ActionSite, "Site "+cfg.Site.Domain+" configured successfully",
		func(ctx context.Context, h host.Host, result *models.ProvisionResult) error {
			return s.setupSite(ctx, h, cfg.Site, content, result)
		})
}

// Check connects to the target and reports what it runs.
func (s *Impl) Check(ctx context.Context, cfg models.Config) (*models.ProvisionResult, error) {
	return s.provision(ctx, cfg, ActionCheck, "Target reachable",
		func(context.Context, host.Host, *models.ProvisionResult) error { return nil })
}

//nolint:nonamedreturns // the deferred notification needs the final outcome
func (s *Impl) provision(
	ctx context.Context,
	cfg models.Config,
	action, successMessage string,
	run job,
) (result *models.ProvisionResult, err error) {
	startTime := time.Now()
	result = &models.ProvisionResult{Action: action}

	s.logger.Info().
		Str("action", action).
		Bool("remote", cfg.Target.IsRemote()).
		Msg("starting provisioning run")

	defer func() {
		result.Duration = time.Since(startTime)
		result.Error = err
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("action", action).
				Str("failed_step", result.FailedStep).
				Msg("provisioning run failed")
		}
		// Send notification if configured
		if cfg.Telegram != nil {
			s.sendNotification(ctx, *cfg.Telegram, result, startTime)
		}
	}()

	if cfg.WOL != nil && cfg.Target.IsRemote() {
		if err := s.runWOL(ctx, cfg.WOL); err != nil {
			result.FailedStep = StageWOL
			return result, err
		}
	}

	h, err := s.connector.Open(ctx, cfg.Target)
	if err != nil {
		result.FailedStep = StageConnect
		s.printer.Failure("Connection failed")
		return result, err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("failed to close host")
		}
	}()

	result.Target = h.String()
	if cfg.Target.IsRemote() {
		s.printer.Success("Connected to " + result.Target)
	}

	s.printer.Step("Detecting operating system...")
	result.Info = s.detector.Probe(ctx, h)
	s.printer.Output(fmt.Sprintf("Detected OS: %s (%s)", displayOS(result.Info.OSID), result.Info.Family))

	if err := run(ctx, h, result); err != nil {
		return result, err
	}

	s.logger.Info().
		Str("action", action).
		Int("steps", len(result.Steps)).
		Dur("duration", time.Since(startTime)).
		Msg("provisioning run completed successfully")
	s.printer.Success(successMessage)

	return result, nil
}

func (s *Impl) installDocker(ctx context.Context, h host.Host, result *models.ProvisionResult) error {
	plan := dispatch.DockerScript(result.Info)

	if err := s.runScript(ctx, h, plan.Before, result); err != nil {
		return err
	}

	if plan.SourcesPath != "" {
		s.printer.Step("Adding Docker repository...")
		if err := s.deployFile(ctx, h, plan.SourcesPath, plan.SourcesContent); err != nil {
			s.logger.Warn().Err(err).Str("path", plan.SourcesPath).Msg("failed to add Docker repository")
			s.printer.Warn("Adding Docker repository failed, continuing")
		}
	}

	if err := s.runScript(ctx, h, plan.After, result); err != nil {
		return err
	}

	return s.runScript(ctx, h, dispatch.FinishScript("docker", "Docker", h.User()), result)
}

func (s *Impl) installNginx(ctx context.Context, h host.Host, result *models.ProvisionResult) error {
	if err := s.runScript(ctx, h, dispatch.NginxScript(result.Info.Family), result); err != nil {
		return err
	}
	return s.runScript(ctx, h, dispatch.FinishScript("nginx", "Nginx", ""), result)
}

func (s *Impl) setupSite(
	ctx context.Context,
	h host.Host,
	site models.SiteConfig,
	content string,
	result *models.ProvisionResult,
) error {
	configPath := nginx.ConfigPath(result.Info.Family, site.Domain)
	enabledPath := nginx.EnabledPath(result.Info.Family, site.Domain)

	s.printer.Step("Deploying site configuration...")
	if err := s.deployFile(ctx, h, configPath, content); err != nil {
		result.FailedStep = StageDeploy
		s.printer.Failure("Deploying site configuration failed")
		return fmt.Errorf("%w: %w", ErrDeployFailed, err)
	}

	if enabledPath != "" {
		if err := s.runScript(ctx, h, dispatch.EnableSiteScript(configPath, enabledPath), result); err != nil {
			return err
		}
	}

	if err := s.runScript(ctx, h, []models.Step{dispatch.ConfigTestStep()}, result); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigTest, err)
	}

	reload, err := s.dispatcher.Run(ctx, h, []models.Step{dispatch.ReloadStep("nginx", "Nginx")})
	if err != nil {
		return err
	}
	if reload != nil {
		result.Steps = append(result.Steps, reload.Executed...)
		if n := len(reload.Executed); n > 0 && reload.Executed[n-1].Succeeded() {
			return nil
		}
	}

	s.logger.Warn().Msg("reload failed, restarting nginx")
	return s.runScript(ctx, h, []models.Step{dispatch.RestartStep("nginx", "Nginx")}, result)
}

func (s *Impl) runScript(ctx context.Context, h host.Host, steps []models.Step, result *models.ProvisionResult) error {
	script, err := s.dispatcher.Run(ctx, h, steps)
	if script != nil {
		result.Steps = append(result.Steps, script.Executed...)
	}
	if err != nil {
		var stepErr *dispatch.StepError
		if errors.As(err, &stepErr) {
			result.FailedStep = stepErr.Step.Description
		}
		return err
	}
	return nil
}

func (s *Impl) deployFile(ctx context.Context, h host.Host, path, content string) error {
	res, err := s.deployer.Deploy(ctx, h, path, content, true)
	if err != nil {
		return err
	}
	return res.Error
}

func (s *Impl) runWOL(ctx context.Context, cfg *models.WOLConfig) error {
	s.logger.Info().
		Str("mac", cfg.MACAddress).
		Str("target", cfg.PollAddr).
		Msg("sending Wake-on-LAN packet")
	s.printer.Step("Waking target...")

	result, err := s.wolSvc.Wake(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("WOL failed: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("WOL failed: %w", result.Error)
	}

	if !result.TargetReady && cfg.PollAddr != "" {
		return fmt.Errorf("target did not become ready after WOL")
	}

	s.logger.Info().
		Bool("packet_sent", result.PacketSent).
		Bool("target_ready", result.TargetReady).
		Dur("wait_duration", result.WaitDuration).
		Msg("WOL completed")

	return nil
}

func (s *Impl) sendNotification(
	ctx context.Context,
	cfg models.TelegramConfig,
	result *models.ProvisionResult,
	startTime time.Time,
) {
	msg := models.TelegramMessage{
		Success:   result.Error == nil,
		Action:    result.Action,
		Target:    result.Target,
		OSID:      result.Info.OSID,
		Family:    result.Info.Family,
		StartTime: startTime,
		Duration:  result.Duration,
		StepsRun:  len(result.Steps),
	}
	for _, o := range result.Steps {
		if !o.Succeeded() {
			msg.StepsFailed++
		}
	}

	if result.Error != nil {
		msg.FailedStep = result.FailedStep
		msg.ErrorMessage = result.Error.Error()
	}

	res, err := s.telegramSvc.SendNotification(ctx, cfg, msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to send Telegram notification")
		return
	}
	if res.Error != nil {
		s.logger.Error().Err(res.Error).Msg("failed to send Telegram notification")
		return
	}

	s.logger.Info().Msg("Telegram notification sent")
}

func displayOS(id string) string {
	if id == "" {
		return "unknown"
	}
	return id
}

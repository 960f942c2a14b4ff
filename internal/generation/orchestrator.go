// Package generation sequences one poster request end to end: credit gate,
// asset staging, template selection, prompt assembly, provider submission and
// polling. Staged assets are released on every exit path.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"posterlab/internal/credits"
	"posterlab/internal/domain"
	"posterlab/internal/imagegen"
	"posterlab/internal/promptbuild"
)

// CreditGate admits or denies a request before any work happens.
type CreditGate interface {
	Admit(ctx context.Context, userID string, res domain.Resolution) (credits.Admission, error)
}

// TemplateSelector picks a stored design for briefs without a reference image.
type TemplateSelector interface {
	Select(ctx context.Context, brief, domainHint string) (domain.TemplateCandidate, error)
}

// AssetResolver stages one request's images and cleans them up afterwards.
type AssetResolver interface {
	Resolve(ctx context.Context, ref string, role domain.AssetRole) (domain.StagedAsset, error)
	Staged() []domain.StagedAsset
	Cleanup(ctx context.Context)
}

// ResolverFactory builds the per-request resolver. Origin is the caller's
// application base URL for relative asset paths.
type ResolverFactory func(requestID, origin string) AssetResolver

// TaskCreator submits a job to the provider.
type TaskCreator interface {
	CreateTask(ctx context.Context, req imagegen.TaskRequest) (string, error)
}

// ResultWaiter polls a submitted job to completion.
type ResultWaiter interface {
	Wait(ctx context.Context, taskID string, res domain.Resolution) (string, error)
}

// PromptBuilder assembles the provider instruction string.
type PromptBuilder interface {
	Build(in promptbuild.Input) string
}

// InsufficientCreditsError reports a credit-gate denial with the figures the
// API surface needs. It unwraps to the matching domain error kind.
type InsufficientCreditsError struct {
	Remaining int
	Needed    int
	Reason    string
	Watermark bool
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: have %d, need %d (%s)", e.Remaining, e.Needed, e.Reason)
}

func (e *InsufficientCreditsError) Unwrap() error {
	return domain.NewError(domain.KindInsufficientCredits, e.Reason)
}

// Options wires an Orchestrator. All fields are required except Logger.
type Options struct {
	Gate        CreditGate
	Selector    TemplateSelector
	NewResolver ResolverFactory
	Prompts     PromptBuilder
	Provider    TaskCreator
	Waiter      ResultWaiter
	Logger      zerolog.Logger
	// TemplateBaseURL turns template storage paths into fetchable URLs.
	TemplateBaseURL string
}

type Orchestrator struct {
	gate            CreditGate
	selector        TemplateSelector
	newResolver     ResolverFactory
	prompts         PromptBuilder
	provider        TaskCreator
	waiter          ResultWaiter
	logger          zerolog.Logger
	templateBaseURL string
	sleep           func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{
		gate:            opts.Gate,
		selector:        opts.Selector,
		newResolver:     opts.NewResolver,
		prompts:         opts.Prompts,
		provider:        opts.Provider,
		waiter:          opts.Waiter,
		logger:          opts.Logger,
		templateBaseURL: strings.TrimRight(opts.TemplateBaseURL, "/"),
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

// retryAfterRateLimit is the single pause before re-submitting a task the
// provider rate-limited.
const retryAfterRateLimit = 2 * time.Second

// Generate runs one validated request to completion. The request must have
// passed Validate; userID comes from the authenticated session.
func (o *Orchestrator) Generate(ctx context.Context, requestID, userID string, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	adm, err := o.gate.Admit(ctx, userID, req.Resolution)
	if err != nil {
		return nil, err
	}
	if !adm.Granted {
		return nil, &InsufficientCreditsError{
			Remaining: adm.Remaining,
			Needed:    adm.Needed,
			Reason:    adm.Reason,
			Watermark: adm.Watermark,
		}
	}

	resolver := o.newResolver(requestID, req.Origin)
	defer resolver.Cleanup(ctx)

	imageURLs, autoTemplate, err := o.stageInputs(ctx, resolver, req)
	if err != nil {
		return nil, err
	}

	prompt := o.prompts.Build(promptbuild.Input{
		Brief:                 req.Prompt,
		CloneMode:             req.CloneMode,
		HasReference:          req.HasReferenceImage(),
		AutoTemplate:          autoTemplate,
		DomainHint:            req.Domain,
		LogoCount:             len(req.LogoImages),
		LogoPositions:         req.LogoPositions,
		HasContentImage:       strings.TrimSpace(req.ContentImage) != "",
		SecondaryInstructions: secondaryInstructions(req.SecondaryImages),
		AspectRatio:           req.AspectRatio,
		OutputFormat:          req.OutputFormat,
		ScenePreference:       req.ScenePreference,
		Language:              req.Language,
	})

	taskID, err := o.submit(ctx, imagegen.TaskRequest{
		Prompt:       prompt,
		ImageURLs:    imageURLs,
		AspectRatio:  req.AspectRatio,
		Resolution:   string(req.Resolution),
		OutputFormat: req.OutputFormat,
	})
	if err != nil {
		return nil, err
	}

	job := domain.NewGenerationJob(taskID, req.Resolution)
	o.logger.Info().
		Str("request_id", requestID).
		Str("task_id", job.TaskID).
		Str("resolution", string(job.Resolution)).
		Int("images", len(imageURLs)).
		Msg("generation task submitted")

	imageURL, err := o.waiter.Wait(ctx, job.TaskID, job.Resolution)
	job.Finish(err == nil)
	o.logger.Info().
		Str("request_id", requestID).
		Str("task_id", job.TaskID).
		Str("state", string(job.State)).
		Dur("elapsed", time.Since(job.SubmittedAt)).
		Msg("generation task settled")
	if err != nil {
		return nil, err
	}

	return &domain.GenerationResult{
		ImageURL:  imageURL,
		TaskID:    job.TaskID,
		Watermark: adm.Watermark,
	}, nil
}

// stageInputs resolves every image reference in provider order: reference (or
// auto-selected template) first, then logos, content, secondaries. The bool
// result reports whether the reference came from automatic template selection.
func (o *Orchestrator) stageInputs(ctx context.Context, resolver AssetResolver, req *domain.GenerationRequest) ([]string, bool, error) {
	var urls []string
	autoTemplate := false

	if req.HasReferenceImage() {
		staged, err := resolver.Resolve(ctx, req.ReferenceImage, domain.AssetRoleReference)
		if err != nil {
			return nil, false, err
		}
		urls = append(urls, staged.URL)
	} else {
		templateURL, ok := o.pickTemplate(ctx, req.Prompt, req.Domain)
		if ok {
			staged, err := resolver.Resolve(ctx, templateURL, domain.AssetRoleReference)
			if err != nil {
				// A broken stored template must not sink the request;
				// fall back to free-mode generation.
				o.logger.Warn().Err(err).Msg("staging selected template failed, continuing without")
			} else {
				urls = append(urls, staged.URL)
				autoTemplate = true
			}
		}
	}

	for _, logo := range req.LogoImages {
		staged, err := resolver.Resolve(ctx, logo, domain.AssetRoleLogo)
		if err != nil {
			return nil, false, err
		}
		urls = append(urls, staged.URL)
	}
	if strings.TrimSpace(req.ContentImage) != "" {
		staged, err := resolver.Resolve(ctx, req.ContentImage, domain.AssetRoleContent)
		if err != nil {
			return nil, false, err
		}
		urls = append(urls, staged.URL)
	}
	for _, sec := range req.SecondaryImages {
		staged, err := resolver.Resolve(ctx, sec.ImageURL, domain.AssetRoleSecondary)
		if err != nil {
			return nil, false, err
		}
		urls = append(urls, staged.URL)
	}
	return urls, autoTemplate, nil
}

// pickTemplate asks the selector for a design and returns a resolvable
// reference to it. Selection failures are soft: the request proceeds in free
// mode.
func (o *Orchestrator) pickTemplate(ctx context.Context, brief, domainHint string) (string, bool) {
	candidate, err := o.selector.Select(ctx, brief, domainHint)
	if err != nil {
		if !domain.IsKind(err, domain.KindNoTemplateAvailable) {
			o.logger.Warn().Err(err).Msg("template selection failed, continuing without")
		}
		return "", false
	}
	path := strings.TrimLeft(candidate.StoragePath, "/")
	if o.templateBaseURL != "" {
		return o.templateBaseURL + "/" + path, true
	}
	return "/" + path, true
}

// submit creates the provider task, retrying exactly once after a provider
// rate limit.
func (o *Orchestrator) submit(ctx context.Context, task imagegen.TaskRequest) (string, error) {
	taskID, err := o.provider.CreateTask(ctx, task)
	if err == nil {
		return taskID, nil
	}
	if !domain.IsRetryable(err) {
		return "", err
	}
	o.logger.Warn().Err(err).Msg("task submission rate limited, retrying once")
	if sleepErr := o.sleep(ctx, retryAfterRateLimit); sleepErr != nil {
		return "", sleepErr
	}
	return o.provider.CreateTask(ctx, task)
}

func secondaryInstructions(images []domain.SecondaryImage) []string {
	if len(images) == 0 {
		return nil
	}
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.Instructions
	}
	return out
}

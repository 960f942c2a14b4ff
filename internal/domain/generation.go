package domain

import (
	"regexp"
	"strings"
)

// Resolution enumerates the output sizes the provider accepts. Higher
// resolutions take materially longer to render, so polling schedules key
// off this value.
type Resolution string

const (
	Resolution1K Resolution = "1K"
	Resolution2K Resolution = "2K"
	Resolution4K Resolution = "4K"
)

// ParseResolution normalizes user input into a supported resolution.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Resolution1K):
		return Resolution1K, nil
	case string(Resolution2K):
		return Resolution2K, nil
	case string(Resolution4K):
		return Resolution4K, nil
	default:
		return "", Errorf(KindInvalidParameters, "unsupported resolution %q", s)
	}
}

// MaxLogoImages caps how many logos a single poster may integrate.
const MaxLogoImages = 5

var (
	allowedAspectRatios = map[string]bool{
		"1:1": true, "2:3": true, "3:2": true, "3:4": true, "4:3": true,
		"4:5": true, "5:4": true, "9:16": true, "16:9": true, "21:9": true,
	}
	aspectRatioPattern = regexp.MustCompile(`^\d+:\d+$`)

	allowedOutputFormats = map[string]bool{"png": true, "jpg": true, "webp": true}
)

// SecondaryImage pairs an extra visual with free-text placement instructions.
type SecondaryImage struct {
	ImageURL     string `json:"imageUrl"`
	Instructions string `json:"instructions"`
}

// GenerationRequest is the validated input for one poster generation.
type GenerationRequest struct {
	Prompt          string           `json:"prompt"`
	ReferenceImage  string           `json:"referenceImage,omitempty"`
	LogoImages      []string         `json:"logoImages,omitempty"`
	LogoPositions   []string         `json:"logoPositions,omitempty"`
	ContentImage    string           `json:"contentImage,omitempty"`
	SecondaryImages []SecondaryImage `json:"secondaryImages,omitempty"`
	AspectRatio     string           `json:"aspectRatio"`
	Resolution      Resolution       `json:"resolution"`
	OutputFormat    string           `json:"outputFormat"`
	ScenePreference string           `json:"scenePreference,omitempty"`
	CloneMode       bool             `json:"isCloneMode,omitempty"`
	Domain          string           `json:"domain,omitempty"`
	// Origin is the referring application base URL, used to resolve
	// relative asset paths. Filled from the request, never by clients.
	Origin string `json:"-"`
	// Language drives the trailing typography directive (e.g. "fr").
	Language string `json:"-"`
}

// Validate checks the request against the wire contract. maxPromptChars is
// the configured prompt length ceiling.
func (r *GenerationRequest) Validate(maxPromptChars int) error {
	prompt := strings.TrimSpace(r.Prompt)
	if prompt == "" {
		return NewError(KindInvalidParameters, "prompt is required")
	}
	if maxPromptChars > 0 && len(prompt) > maxPromptChars {
		return Errorf(KindInvalidParameters, "prompt exceeds %d characters", maxPromptChars)
	}
	r.Prompt = prompt

	if r.AspectRatio == "" {
		r.AspectRatio = "3:4"
	}
	if !allowedAspectRatios[r.AspectRatio] && !aspectRatioPattern.MatchString(r.AspectRatio) {
		return Errorf(KindInvalidParameters, "unsupported aspect ratio %q", r.AspectRatio)
	}

	res, err := ParseResolution(string(r.Resolution))
	if err != nil {
		return err
	}
	r.Resolution = res

	format := strings.ToLower(strings.TrimSpace(r.OutputFormat))
	if format == "" {
		format = "png"
	}
	if !allowedOutputFormats[format] {
		return Errorf(KindInvalidParameters, "unsupported output format %q", r.OutputFormat)
	}
	r.OutputFormat = format

	if len(r.LogoImages) > MaxLogoImages {
		return Errorf(KindInvalidParameters, "at most %d logo images are allowed", MaxLogoImages)
	}

	r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
	return nil
}

// HasReferenceImage reports whether the user supplied a design to clone.
func (r *GenerationRequest) HasReferenceImage() bool {
	return strings.TrimSpace(r.ReferenceImage) != ""
}

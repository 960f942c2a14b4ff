package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"posterlab/internal/domain"
	"posterlab/internal/storage"
)

// Options configures a per-request Resolver.
type Options struct {
	Store      storage.ObjectStore
	HTTPClient *http.Client
	Logger     zerolog.Logger
	// TempBucket receives every staged object.
	TempBucket string
	// Origin is the referring application base URL, if the request carried one.
	Origin string
	// TemplateBaseURL resolves relative paths when Origin is unavailable.
	TemplateBaseURL string
	// MaxBytes caps the decoded size of any single asset.
	MaxBytes  int64
	RequestID string
}

// Resolver normalizes visual inputs into durable URLs in temporary storage.
// A Resolver belongs to exactly one generation request; it records every
// staged object so Cleanup can release them no matter how the request ends.
type Resolver struct {
	store           storage.ObjectStore
	httpClient      *http.Client
	logger          zerolog.Logger
	tempBucket      string
	origin          string
	templateBaseURL string
	maxBytes        int64
	requestID       string

	staged []domain.StagedAsset
}

const defaultMaxAssetBytes = 10 * 1024 * 1024

var inlineSubtypes = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"webp": ".webp",
}

func NewResolver(opts Options) *Resolver {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxAssetBytes
	}
	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &Resolver{
		store:           opts.Store,
		httpClient:      client,
		logger:          opts.Logger,
		tempBucket:      opts.TempBucket,
		origin:          strings.TrimRight(strings.TrimSpace(opts.Origin), "/"),
		templateBaseURL: strings.TrimRight(strings.TrimSpace(opts.TemplateBaseURL), "/"),
		maxBytes:        maxBytes,
		requestID:       requestID,
	}
}

// Resolve turns one asset reference into a durable URL in temporary storage.
// Accepted forms: a base64 data URI, an absolute http(s) URL, or a relative
// path beginning with "/".
func (r *Resolver) Resolve(ctx context.Context, ref string, role domain.AssetRole) (domain.StagedAsset, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "data:"):
		return r.resolveInline(ctx, ref, role)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.resolveRemote(ctx, ref, role, domain.SourceRemoteURL)
	case strings.HasPrefix(ref, "/"):
		return r.resolveRelative(ctx, ref, role)
	default:
		return domain.StagedAsset{}, domain.Errorf(domain.KindInvalidAssetFormat, "unrecognized asset reference for role %s", role)
	}
}

func (r *Resolver) resolveInline(ctx context.Context, ref string, role domain.AssetRole) (domain.StagedAsset, error) {
	rest, ok := strings.CutPrefix(ref, "data:image/")
	if !ok {
		return domain.StagedAsset{}, domain.NewError(domain.KindInvalidAssetFormat, "data uri is not an image")
	}
	subtype, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return domain.StagedAsset{}, domain.NewError(domain.KindInvalidAssetFormat, "data uri is not base64 encoded")
	}
	ext, supported := inlineSubtypes[strings.ToLower(subtype)]
	if !supported {
		return domain.StagedAsset{}, domain.Errorf(domain.KindInvalidAssetFormat, "unsupported image subtype %q", subtype)
	}
	// Encoded length * 3/4 approximates the decoded size; reject before
	// decoding so oversized payloads never reach storage.
	if int64(len(encoded))*3/4 > r.maxBytes {
		return domain.StagedAsset{}, domain.Errorf(domain.KindAssetTooLarge, "asset exceeds %d bytes", r.maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.StagedAsset{}, domain.WrapError(domain.KindInvalidAssetFormat, err, "malformed base64 payload")
	}
	contentType := "image/" + strings.ToLower(subtype)
	return r.stage(ctx, data, contentType, ext, role, domain.SourceInline)
}

func (r *Resolver) resolveRemote(ctx context.Context, rawURL string, role domain.AssetRole, source domain.SourceForm) (domain.StagedAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.StagedAsset{}, domain.WrapError(domain.KindAssetFetchFailed, err, "invalid asset url")
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return domain.StagedAsset{}, domain.WrapError(domain.KindAssetFetchFailed, err, "asset fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.StagedAsset{}, domain.Errorf(domain.KindAssetFetchFailed, "asset fetch returned status %d", resp.StatusCode)
	}
	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(contentType, "image/") {
		return domain.StagedAsset{}, domain.Errorf(domain.KindAssetFetchFailed, "unexpected content type %q", contentType)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return domain.StagedAsset{}, domain.WrapError(domain.KindAssetFetchFailed, err, "reading asset body")
	}
	if int64(len(data)) > r.maxBytes {
		return domain.StagedAsset{}, domain.Errorf(domain.KindAssetTooLarge, "asset exceeds %d bytes", r.maxBytes)
	}
	return r.stage(ctx, data, contentType, extensionFor(contentType), role, source)
}

func (r *Resolver) resolveRelative(ctx context.Context, path string, role domain.AssetRole) (domain.StagedAsset, error) {
	base := r.origin
	if base == "" {
		base = r.templateBaseURL
	}
	if base == "" {
		return domain.StagedAsset{}, domain.Errorf(domain.KindUnresolvedRelativePath, "no origin available for relative path %s", path)
	}
	full := base + "/" + strings.TrimLeft(path, "/")
	if _, err := url.Parse(full); err != nil {
		return domain.StagedAsset{}, domain.WrapError(domain.KindUnresolvedRelativePath, err, "malformed relative reference")
	}
	asset, err := r.resolveRemote(ctx, full, role, domain.SourceTemplatePath)
	if err != nil {
		return domain.StagedAsset{}, err
	}
	asset.Source = domain.SourceTemplatePath
	return asset, nil
}

// stage writes the bytes to temporary storage and records the object for cleanup.
func (r *Resolver) stage(ctx context.Context, data []byte, contentType, ext string, role domain.AssetRole, source domain.SourceForm) (domain.StagedAsset, error) {
	key := fmt.Sprintf("%s/%s-%s%s", role, r.requestID, uuid.NewString()[:8], ext)
	if err := r.store.Upload(ctx, r.tempBucket, key, data, contentType); err != nil {
		return domain.StagedAsset{}, domain.WrapError(domain.KindAssetFetchFailed, err, "staging asset")
	}
	publicURL, err := r.store.PublicURL(ctx, r.tempBucket, key)
	if err != nil {
		return domain.StagedAsset{}, domain.WrapError(domain.KindAssetFetchFailed, err, "resolving staged asset url")
	}
	asset := domain.StagedAsset{
		Source:      source,
		Role:        role,
		Bucket:      r.tempBucket,
		Key:         key,
		URL:         publicURL,
		ContentType: contentType,
	}
	r.staged = append(r.staged, asset)
	return asset, nil
}

// Staged lists every asset resolved so far, in resolution order.
func (r *Resolver) Staged() []domain.StagedAsset {
	return r.staged
}

// Cleanup deletes every staged object. Failures are logged and swallowed;
// temporary objects also age out server-side. Runs even when the request
// context was cancelled.
func (r *Resolver) Cleanup(ctx context.Context) {
	if len(r.staged) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	for _, asset := range r.staged {
		if err := r.store.Remove(ctx, asset.Bucket, asset.Key); err != nil {
			r.logger.Warn().Err(err).Str("key", asset.Key).Msg("assets: cleanup failed")
		}
	}
	r.staged = nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

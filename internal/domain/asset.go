package domain

// AssetRole identifies what a staged image is used for in the final poster.
type AssetRole string

const (
	AssetRoleReference AssetRole = "reference"
	AssetRoleLogo      AssetRole = "logo"
	AssetRoleContent   AssetRole = "content"
	AssetRoleSecondary AssetRole = "secondary"
)

// SourceForm records how the asset arrived in the request.
type SourceForm string

const (
	SourceInline       SourceForm = "inline"
	SourceRemoteURL    SourceForm = "remote_url"
	SourceTemplatePath SourceForm = "template_path"
)

// StagedAsset is an input image normalized into a durable, provider-fetchable
// URL in temporary storage. Staged assets belong to exactly one request and
// are deleted best-effort once the request ends.
type StagedAsset struct {
	Source      SourceForm
	Role        AssetRole
	Bucket      string
	Key         string
	URL         string
	ContentType string
}

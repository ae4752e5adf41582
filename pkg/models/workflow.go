package models

// ResultSource labels whether a workflow result came from live external
// calls or from the deterministic scripted fallback.
type ResultSource string

const (
	// SourceLive marks a result produced by real external calls.
	SourceLive ResultSource = "live"
	// SourceScripted marks a fallback result produced without external calls.
	SourceScripted ResultSource = "scripted"
)

// NewsResult is the summary returned by the collect-and-translate workflow.
type NewsResult struct {
	// WorkflowID identifies the invocation that produced this result.
	WorkflowID string `json:"workflow_id"`
	// Topic is the subject the workflow collected news for.
	Topic string `json:"topic"`
	// TargetLanguage is the language the digest was translated into.
	TargetLanguage string `json:"target_language"`
	// Digest is the original-language digest text.
	Digest string `json:"digest"`
	// Translated is the digest rendered in the target language.
	Translated string `json:"translated"`
	// Articles are the individual items parsed from the digest.
	Articles []NewsArticle `json:"articles,omitempty"`
	// Source labels whether the result is live or scripted.
	Source ResultSource `json:"source"`
}

// RepoResult is the summary returned by the modify-repository workflow.
type RepoResult struct {
	// WorkflowID identifies the invocation that produced this result.
	WorkflowID string `json:"workflow_id"`
	// Success reports whether the change shipped end to end.
	Success bool `json:"success"`
	// Requirements is the instruction the workflow acted on.
	Requirements string `json:"requirements"`
	// Analysis is the analyze-stage output.
	Analysis string `json:"analysis,omitempty"`
	// Review is the review-stage output.
	Review string `json:"review,omitempty"`
	// Changes are the parsed file modifications.
	Changes []CodeChange `json:"changes,omitempty"`
	// PullRequestURL links to the opened pull request, when one exists.
	PullRequestURL string `json:"pull_request_url,omitempty"`
	// Deployment is the CI watch outcome, when the workflow got that far.
	Deployment *DeploymentResult `json:"deployment,omitempty"`
	// Source labels whether the result is live or scripted.
	Source ResultSource `json:"source"`
}

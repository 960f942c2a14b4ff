// Package imagegen talks to the external image-generation provider: task
// creation, status polling, and the failure classification in between.
package imagegen

// TaskRequest is the payload for creating a remote generation job. ImageURLs
// must already be durable, provider-fetchable URLs in the order reference,
// logos, content, secondary.
type TaskRequest struct {
	Prompt       string   `json:"prompt"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	AspectRatio  string   `json:"aspect_ratio"`
	Resolution   string   `json:"resolution"`
	OutputFormat string   `json:"output_format"`
}

// Provider-reported task states.
const (
	StateWaiting = "waiting"
	StateSuccess = "success"
	StateFail    = "fail"
)

// TaskStatus is one poll observation of a remote job.
type TaskStatus struct {
	State      string   `json:"state"`
	ResultURLs []string `json:"result_urls,omitempty"`
	FailMsg    string   `json:"fail_msg,omitempty"`
}

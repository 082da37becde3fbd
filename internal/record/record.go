package record

import "time"

// Provider identifies which remote image provider a record was sent to.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// KnownProvider reports whether p is a configured provider choice.
func KnownProvider(p Provider) bool {
	return p == ProviderOpenAI || p == ProviderGemini
}

// Mode distinguishes text-to-image generation from image editing.
type Mode string

const (
	ModeGenerate Mode = "generate" // no input images
	ModeEdit     Mode = "edit"     // one or more input images
)

// State is the lifecycle state of a record. A record is created pending and
// transitions at most once, to exactly one terminal state.
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether s is a terminal lifecycle state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Record is one entry of the generation history.
type Record struct {
	// ID is a ULID assigned at submission time, stable for the record's
	// lifetime and used as the store primary key.
	ID string `json:"id"`

	// Prompt is the effective instruction sent to the provider, after the
	// edit template and any user text have been combined.
	Prompt string `json:"prompt"`

	// Provider is the provider the request was dispatched to.
	Provider Provider `json:"provider"`

	// Mode is generate or edit.
	Mode Mode `json:"mode"`

	// State is pending, succeeded, or failed.
	State State `json:"state"`

	// CreatedAt is the submission instant. It is immutable and the sole
	// ordering key for history display (descending). Nanosecond fidelity is
	// preserved across store round-trips.
	CreatedAt time.Time `json:"created_at"`

	// Attachments holds the source images as data URLs. Set once at creation.
	Attachments []string `json:"attachments,omitempty"`

	// ResultImage is the output image as a data URL. Present only when
	// State is succeeded.
	ResultImage string `json:"result_image,omitempty"`

	// FailureMessage is the human-readable cause. Present only when State
	// is failed.
	FailureMessage string `json:"failure_message,omitempty"`
}

// Clone returns a deep copy of r. The view model hands out clones so callers
// cannot mutate shared state.
func (r *Record) Clone() *Record {
	c := *r
	if r.Attachments != nil {
		c.Attachments = append([]string(nil), r.Attachments...)
	}
	return &c
}

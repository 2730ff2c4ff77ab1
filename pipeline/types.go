package pipeline

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/xeptore/musicflow/pipeline/fs"
)

// TrackDescriptor identifies one track within a batch. Immutable once
// constructed and never shared across batches.
type TrackDescriptor struct {
	ID         string
	Title      string
	Artist     string
	DurationMS int64
}

func (d TrackDescriptor) ToDict() *zerolog.Event {
	return zerolog.
		Dict().
		Str("id", d.ID).
		Str("title", d.Title).
		Str("artist", d.Artist).
		Int64("duration_ms", d.DurationMS)
}

type QualityTier int

const (
	TierStandard QualityTier = iota
	TierHigh
	TierPremium
)

func (t QualityTier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierHigh:
		return "high"
	case TierPremium:
		return "premium"
	}

	return "unknown"
}

func (t QualityTier) Valid() bool {
	switch t {
	case TierStandard, TierHigh, TierPremium:
		return true
	default:
		return false
	}
}

var ErrInvalidQuality = errors.New("quality tier is not recognized")

// ParseTier maps external tier input onto the closed tier set. Kbps aliases
// are accepted for compatibility with the quality button payloads.
func ParseTier(s string) (QualityTier, error) {
	switch s {
	case "standard", "128":
		return TierStandard, nil
	case "high", "192":
		return TierHigh, nil
	case "premium", "320":
		return TierPremium, nil
	default:
		return 0, ErrInvalidQuality
	}
}

// FormatConstraint bounds what the download backend is allowed to produce.
// MaxBitrateKbps of 0 means best available.
type FormatConstraint struct {
	MaxBitrateKbps int
	Containers     []string
}

// Selector builds the backend format selection expression. Deterministic for
// a given constraint.
func (c FormatConstraint) Selector() string {
	if c.MaxBitrateKbps == 0 {
		return "bestaudio/best"
	}

	return fmt.Sprintf("bestaudio[abr<=%d]/bestaudio", c.MaxBitrateKbps)
}

// ResolvedSource is the address of one playable candidate. Created per job
// attempt and discarded when the job completes.
type ResolvedSource struct {
	Address              string
	EstimatedBitrateKbps *int
}

type ArtifactFormat struct {
	Extension string
	MIME      string
}

// AcquiredArtifact is the downloaded audio payload backed by an exclusively
// owned storage scope. The job that produced it owns it until it is handed to
// the delivery sink; Release is idempotent and frees the backing storage.
type AcquiredArtifact struct {
	Path      string
	SizeBytes int64
	Format    ArtifactFormat
	scope     *fs.Scope
}

func (a *AcquiredArtifact) Release() error {
	if nil == a.scope {
		return nil
	}

	return a.scope.Release()
}

type FailureKind int

const (
	FailureNotFound FailureKind = iota
	FailureBackendError
	FailureTimeout
	FailureArtifactMissing
	FailureUnsupported
	FailureInvalidQuality
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureBackendError:
		return "backend_error"
	case FailureTimeout:
		return "timeout"
	case FailureArtifactMissing:
		return "artifact_missing"
	case FailureUnsupported:
		return "unsupported"
	case FailureInvalidQuality:
		return "invalid_quality"
	}

	return "unknown"
}

type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return f.Kind.String() + ": " + f.Message
}

func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// JobOutcome is the single result produced for one descriptor in one batch
// run. Exactly one of Artifact and Failure is set.
type JobOutcome struct {
	Artifact *AcquiredArtifact
	Failure  *Failure
}

func (o JobOutcome) Succeeded() bool {
	return nil == o.Failure
}

// BatchResult holds one outcome per input descriptor, aligned index for
// index with the input order.
type BatchResult struct {
	Outcomes  []JobOutcome
	Succeeded int
	Total     int
}

func (r *BatchResult) Summary() string {
	return strconv.Itoa(r.Succeeded) + "/" + strconv.Itoa(r.Total)
}

// ProgressEvent is advisory. Losing one never affects the final BatchResult.
type ProgressEvent struct {
	Index     int
	Total     int
	Completed int
	Title     string
	Artist    string
	Failure   *Failure
}

type ProgressSink func(ProgressEvent)

type jobState int

const (
	stateQueued jobState = iota
	stateResolving
	stateDownloading
	stateSucceeded
	stateFailed
)

func (s jobState) String() string {
	switch s {
	case stateQueued:
		return "queued"
	case stateResolving:
		return "resolving"
	case stateDownloading:
		return "downloading"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	}

	return "unknown"
}

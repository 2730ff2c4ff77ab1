package pipeline

// preferredContainers is the container preference order used when the backend
// substitutes the output format. Raw m4a/webm streams avoid re-encoding.
var preferredContainers = []string{"m4a", "webm", "mp3", "opus", "ogg"}

// ConstraintFor maps a quality tier to its source-format selection
// constraint. Pure and total over the closed tier set; callers must validate
// external input with ParseTier first.
func ConstraintFor(tier QualityTier) FormatConstraint {
	switch tier {
	case TierStandard:
		return FormatConstraint{MaxBitrateKbps: 128, Containers: preferredContainers}
	case TierHigh:
		return FormatConstraint{MaxBitrateKbps: 192, Containers: preferredContainers}
	case TierPremium:
		return FormatConstraint{MaxBitrateKbps: 0, Containers: preferredContainers}
	default:
		panic("unexpected quality tier: " + tier.String())
	}
}

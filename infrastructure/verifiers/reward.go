package verifiers

import (
	"github.com/ahrav/go-scrutiny/internal/ports"
)

// NewRewardModelVerifier is the capability slot for a reward-model-based
// verifier strategy (tag ports.StrategyRewardModel). No implementation
// ships yet; any future one must satisfy the ports.VerifierStrategy
// contract like the judge and classifier variants.
//
// TODO: implement once a reward model with a stable scoring API is chosen.
func NewRewardModelVerifier() (ports.VerifierStrategy, error) {
	return nil, ports.ErrNotImplemented
}

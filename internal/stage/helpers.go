package stage

import (
	"context"

	"streamwatch/internal/services"
	"streamwatch/internal/store"
)

// LoadEvidence fetches the captured evidence for a detection.
// Missing evidence is returned as a services.ErrValidation suitable for
// stage Execute methods; the detection must be re-captured first.
func LoadEvidence(ctx context.Context, st *store.Store, detectionID int64) (*store.Evidence, error) {
	evidence, err := st.EvidenceForDetection(ctx, detectionID)
	if err != nil {
		return nil, services.Wrap(
			services.ErrTransient, "stage", "load evidence", "", err)
	}
	if evidence == nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "load evidence",
			"No evidence captured for detection; rerun capture", nil)
	}
	return evidence, nil
}

package lifecycle

import (
	"encoding/json"
	"fmt"
	"time"

	"bharosepe/internal/models"
)

// DisputeSnapshot is the copy-on-escalate record stored on the escalation
// row. It is a point-in-time copy, not a live reference: dispute activity
// after capture never changes it.
type DisputeSnapshot struct {
	Dispute    models.Dispute           `json:"dispute"`
	Messages   []models.DisputeMessage  `json:"messages"`
	Proposals  []models.DisputeProposal `json:"proposals"`
	CapturedAt time.Time                `json:"captured_at"`
}

// SnapshotDisputeData serializes the dispute context for the escalation row.
func SnapshotDisputeData(d models.Dispute, msgs []models.DisputeMessage, props []models.DisputeProposal) (string, error) {
	snap := DisputeSnapshot{
		Dispute:    d,
		Messages:   msgs,
		Proposals:  props,
		CapturedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("snapshot dispute %d: %w", d.ID, err)
	}
	return string(b), nil
}

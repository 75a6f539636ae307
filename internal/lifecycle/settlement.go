package lifecycle

import (
	"fmt"

	"bharosepe/internal/models"
)

// Apportion computes the settlement split for an accepted proposal.
// The result always satisfies buyerRefund + sellerRelease == total exactly;
// amounts are whole rupees, so there is no rounding to leak.
func Apportion(t models.ProposalType, proposalAmount, total int64) (buyerRefund, sellerRelease int64, err error) {
	if total <= 0 {
		return 0, 0, fmt.Errorf("%w: transaction amount %d is not positive", ErrInvalidGuard, total)
	}

	switch t {
	case models.ProposalReleaseFull:
		if proposalAmount != total {
			return 0, 0, fmt.Errorf("%w: full release must cover the full amount %d, got %d", ErrInvalidGuard, total, proposalAmount)
		}
		return 0, total, nil
	case models.ProposalRefundFull:
		if proposalAmount != total {
			return 0, 0, fmt.Errorf("%w: full refund must cover the full amount %d, got %d", ErrInvalidGuard, total, proposalAmount)
		}
		return total, 0, nil
	case models.ProposalReleasePartial:
		if proposalAmount <= 0 || proposalAmount >= total {
			return 0, 0, fmt.Errorf("%w: partial release %d must be between 0 and %d exclusive", ErrInvalidGuard, proposalAmount, total)
		}
		return total - proposalAmount, proposalAmount, nil
	case models.ProposalRefundPartial:
		if proposalAmount <= 0 || proposalAmount >= total {
			return 0, 0, fmt.Errorf("%w: partial refund %d must be between 0 and %d exclusive", ErrInvalidGuard, proposalAmount, total)
		}
		return proposalAmount, total - proposalAmount, nil
	}
	return 0, 0, fmt.Errorf("%w: unknown proposal type %q", ErrInvalidGuard, t)
}

// SettlementNotes renders the human-readable resolution notes recorded when
// a proposal acceptance drives the resolution automatically.
func SettlementNotes(t models.ProposalType, buyerRefund, sellerRelease int64) string {
	return fmt.Sprintf("Settled by accepted %s proposal: ₹%d refunded to buyer, ₹%d released to seller", t, buyerRefund, sellerRelease)
}

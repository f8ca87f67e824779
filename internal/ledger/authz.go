package ledger

import (
	"github.com/google/uuid"

	"github.com/moneta-app/moneta/internal/apperr"
)

// Authorize checks that the requester owns the resource. Identity validity
// is the authentication layer's problem; this guard only compares ownership
// and is called before any side effect.
func Authorize(requesterID, ownerID uuid.UUID) error {
	if requesterID != ownerID {
		return apperr.Errorf(apperr.KindForbidden, "forbidden", "requester does not own this resource")
	}
	return nil
}

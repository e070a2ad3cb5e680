package http

import (
	"net/http"

	"github.com/Dsek-LTH/new-web/internal/domain"
)

// Buyers identify themselves with exactly one of these headers. Member ids
// come from the session layer upstream; anonymous codes are the opaque tokens
// issued to external buyers.
const (
	headerMemberID      = "X-Member-ID"
	headerAnonymousCode = "X-Anonymous-Code"
)

func identificationFrom(r *http.Request) domain.Identification {
	return domain.Identification{
		MemberID:     r.Header.Get(headerMemberID),
		ExternalCode: r.Header.Get(headerAnonymousCode),
	}
}

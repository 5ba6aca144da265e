package attendance

import (
	"io"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

// PunchRequest is the client-side payload for the punch endpoint. The
// backend decides whether it is a punch in or a punch out from its own
// state; the client only supplies context.
type PunchRequest struct {
	LocalIP string

	// Proof photo, required only under the photo punch policy.
	Photo         io.Reader
	PhotoFilename string
}

// PunchResponse is the backend's acknowledgement of a punch action.
type PunchResponse struct {
	Message string `json:"message"`
}

// ClientIPResponse is the backend's view of the caller's IP. The value may
// be a comma-separated list when proxies are involved; the first entry is
// the primary address.
type ClientIPResponse struct {
	IP string `json:"ip"`
}

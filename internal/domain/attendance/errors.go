package attendance

import "errors"

// Attendance domain errors
var (
	// Punch gate errors
	ErrPunchInWindowClosed  = errors.New("punch in is not allowed at this time")
	ErrPunchOutWindowClosed = errors.New("punch out is not allowed at this time")
	ErrWifiNotAllowed       = errors.New("you are not on an allowed wifi network")
	ErrAlreadyPunchedIn     = errors.New("you have already punched in today")
	ErrAlreadyPunchedOut    = errors.New("you have already punched out today")
	ErrNotPunchedIn         = errors.New("you have not punched in yet")
	ErrPhotoRequired        = errors.New("a proof photo is required to punch")
	ErrMinWorkNotReached    = errors.New("minimum work duration has not been reached")
	ErrPunchInFlight        = errors.New("a punch request is already in flight")

	// History errors
	ErrUnparseableDate = errors.New("history entry has an unparseable date")
)

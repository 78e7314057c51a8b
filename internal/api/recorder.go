package api

import "errors"

// Recorder appends a call record to a token's history after a protected
// operation completes.
type Recorder struct {
	Store CallStore
}

// Record creates the Call first, then appends its reference to the
// token. A token that vanished in between yields (false, nil) so the
// caller decides severity; the orphaned Call is harmless append-only
// garbage. Storage failures propagate.
func (rec Recorder) Record(tokenString, requestType, requestBody string) (bool, error) {
	call, err := rec.Store.CreateCall(requestType, requestBody)
	if err != nil {
		return false, err
	}

	err = rec.Store.AppendCall(tokenString, call.ID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrTokenVanished):
		return false, nil
	default:
		return false, err
	}
}

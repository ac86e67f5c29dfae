package gameserver

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/repairman29/mythseeker/internal/game/combat"
	"github.com/repairman29/mythseeker/internal/storage/postgres"
)

// StatusError translates a domain error into a gRPC status error. It is the
// single place the error taxonomy is mapped to wire codes, so handlers never
// hand-pick codes per call site.
//
// Postcondition: Returns nil iff err is nil. Unrecognised errors map to
// codes.Internal.
func StatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && status.Code(err) != codes.Unknown {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, postgres.ErrCombatNotFound),
		errors.Is(err, postgres.ErrSessionNotFound),
		errors.Is(err, postgres.ErrCharacterNotFound),
		errors.Is(err, ErrUnknownTemplate):
		code = codes.NotFound
	case errors.Is(err, combat.ErrInvalidAction),
		errors.Is(err, combat.ErrEmptyRoster),
		errors.Is(err, ErrInvalidResult):
		code = codes.InvalidArgument
	case errors.Is(err, combat.ErrTerminalSession),
		errors.Is(err, ErrCombatAlreadyActive):
		code = codes.FailedPrecondition
	case errors.Is(err, ErrNotAuthorized):
		code = codes.PermissionDenied
	case errors.Is(err, postgres.ErrVersionConflict):
		code = codes.Aborted
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

package sessionerror

import (
	"fmt"
	"net/http"

	"github.com/evaltrack/backend/srvcerror"
	"github.com/google/uuid"
)

const ErrCodeSessionNotFound = "session_not_found"

func ErrSessionNotFound(id uuid.UUID) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionNotFound,
		fmt.Sprintf("session %s not found", id),
	).SetKind(srvcerror.KindNotFound).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeNotSessionOwner = "not_session_owner"

func ErrNotSessionOwner() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotSessionOwner,
		"session belongs to another trainer",
	).SetKind(srvcerror.KindAuthorization).SetHttpStatusCode(http.StatusForbidden)
}

const ErrCodeSessionCompleted = "session_completed"

func ErrSessionCompleted() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionCompleted,
		"session is completed and can no longer be changed",
	).SetKind(srvcerror.KindConflict).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeSessionClosed = "session_closed"

func ErrSessionClosed() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionClosed,
		"session is not accepting registrations",
	).SetKind(srvcerror.KindConflict).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeCandidateRequired = "candidate_required"

func ErrCandidateRequired() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeCandidateRequired,
		"personal interview sessions need a candidate",
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeNotGroupSession = "not_group_session"

func ErrNotGroupSession() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotGroupSession,
		"only group discussion sessions have a student list",
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeUnauthenticated = "unauthenticated"

func ErrUnauthenticated() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUnauthenticated,
		"sign in to continue",
	).SetKind(srvcerror.KindAuth).SetHttpStatusCode(http.StatusUnauthorized)
}

const ErrCodeParticipantNotFound = "participant_not_found"

func ErrParticipantNotFound(chestNumber int) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeParticipantNotFound,
		fmt.Sprintf("no participant with chest number %d", chestNumber),
	).SetKind(srvcerror.KindNotFound).SetHttpStatusCode(http.StatusNotFound)
}

package draft

import (
	"fmt"
	"net/http"

	"github.com/evaltrack/backend/srvcerror"
)

const ErrCodeSessionCompleted = "session_completed"

func newErrSessionCompleted() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionCompleted,
		"session is completed and can no longer be evaluated",
	).SetKind(srvcerror.KindConflict).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeParticipantNotFound = "participant_not_found"

func newErrParticipantNotFound(chestNumber int) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeParticipantNotFound,
		fmt.Sprintf("participant with chest number %d not found", chestNumber),
	).SetKind(srvcerror.KindNotFound).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeUnknownCategory = "unknown_category"

func newErrUnknownCategory(categoryID string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUnknownCategory,
		fmt.Sprintf("unknown scoring category %q", categoryID),
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeSubFieldRequired = "sub_field_required"

func newErrSubFieldRequired(categoryID string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSubFieldRequired,
		fmt.Sprintf("category %q is scored through its sub-fields", categoryID),
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeNotGroupSession = "not_group_session"

func newErrNotGroupSession() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotGroupSession,
		"participants can only be managed in group discussion sessions",
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeViewClosed = "view_closed"

func newErrViewClosed() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeViewClosed,
		"session view was closed, open it again",
	).SetKind(srvcerror.KindConflict).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeViewNotOpen = "view_not_open"

func newErrViewNotOpen() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeViewNotOpen,
		"session is not open for evaluation",
	).SetKind(srvcerror.KindNotFound).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeCommitFailed = "commit_failed"

func newErrCommitFailed(err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeCommitFailed,
		"evaluations were not saved to the server, the local draft was kept",
	).SetKind(srvcerror.KindStore).SetHttpStatusCode(http.StatusServiceUnavailable).SetDebug(err)
}

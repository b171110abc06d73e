package trainer

import (
	"fmt"
	"net/http"

	"github.com/evaltrack/backend/srvcerror"
)

const ErrCodeTrainerNotFound = "trainer_not_found"

func ErrTrainerNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeTrainerNotFound,
		"trainer not found",
	).SetKind(srvcerror.KindNotFound).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeInvalidRole = "invalid_role"

func newErrInvalidRole(role Role) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidRole,
		fmt.Sprintf("role %q is not one of user, admin, dead", role),
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeTrainerExists = "trainer_exists"

func newErrTrainerExists() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeTrainerExists,
		"a trainer with this account already exists",
	).SetKind(srvcerror.KindConflict).SetHttpStatusCode(http.StatusConflict)
}

func isNotFound(err error) bool {
	return srvcerror.HasCode(err, ErrCodeTrainerNotFound)
}

package access

import (
	"net/http"

	"github.com/evaltrack/backend/srvcerror"
)

const ErrCodeNotAuthorized = "not_authorized"

func newErrNotAuthorized() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotAuthorized,
		"you are not authorized to use this application",
	).SetKind(srvcerror.KindAuthorization).SetHttpStatusCode(http.StatusForbidden)
}

const ErrCodeAccountDeactivated = "account_deactivated"

func newErrAccountDeactivated() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeAccountDeactivated,
		"your account has been deactivated",
	).SetKind(srvcerror.KindAuthorization).SetHttpStatusCode(http.StatusForbidden)
}

const ErrCodeUnauthenticated = "unauthenticated"

func ErrUnauthenticated() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUnauthenticated,
		"sign in to continue",
	).SetKind(srvcerror.KindAuth).SetHttpStatusCode(http.StatusUnauthorized)
}

const ErrCodeForbidden = "forbidden"

func ErrForbidden() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeForbidden,
		"you do not have access to this resource",
	).SetKind(srvcerror.KindAuthorization).SetHttpStatusCode(http.StatusForbidden)
}

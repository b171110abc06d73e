package identity

import (
	"net/http"

	"github.com/evaltrack/backend/srvcerror"
)

const ErrCodeInvalidCredential = "invalid_credential"

func newErrInvalidCredential() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidCredential,
		"email or password is incorrect",
	).SetKind(srvcerror.KindAuth).SetHttpStatusCode(http.StatusUnauthorized)
}

const ErrCodeAccountDisabled = "account_disabled"

func newErrAccountDisabled() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeAccountDisabled,
		"this account has been disabled",
	).SetKind(srvcerror.KindAuth).SetHttpStatusCode(http.StatusForbidden)
}

const ErrCodeUserNotFound = "user_not_found"

func ErrUserNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUserNotFound,
		"no account with this email",
	).SetKind(srvcerror.KindAuth).SetHttpStatusCode(http.StatusUnauthorized)
}

const ErrCodeTooManyAttempts = "too_many_attempts"

func newErrTooManyAttempts() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeTooManyAttempts,
		"too many failed sign-in attempts, try again later",
	).SetKind(srvcerror.KindAuth).SetHttpStatusCode(http.StatusTooManyRequests)
}

const ErrCodeInvalidToken = "invalid_token"

func newErrInvalidToken() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidToken,
		"sign-in token is invalid or expired",
	).SetKind(srvcerror.KindAuth).SetHttpStatusCode(http.StatusUnauthorized)
}

const ErrCodeSignedOut = "signed_out"

func newErrSignedOut() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSignedOut,
		"this sign-in has ended, sign in again",
	).SetKind(srvcerror.KindAuth).SetHttpStatusCode(http.StatusUnauthorized)
}

const ErrCodeEmailExists = "email_exists"

func newErrEmailExists() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeEmailExists,
		"an account with this email already exists",
	).SetKind(srvcerror.KindConflict).SetHttpStatusCode(http.StatusConflict)
}

package hierarchy

import (
	"fmt"
	"net/http"

	"github.com/evaltrack/backend/srvcerror"
)

const ErrCodeNodeNotFound = "node_not_found"

func ErrNodeNotFound(id fmt.Stringer) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNodeNotFound,
		fmt.Sprintf("hierarchy node %s not found", id),
	).SetKind(srvcerror.KindNotFound).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeHasChildren = "node_has_children"

func ErrHasChildren() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeHasChildren,
		"node still has children, delete them first",
	).SetKind(srvcerror.KindConflict).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeInvalidParent = "invalid_parent"

func newErrInvalidParent(kind Kind, want Kind) *srvcerror.Error {
	msg := fmt.Sprintf("a %s must be placed under a %s", kind, want)
	if want == "" {
		msg = fmt.Sprintf("a %s has no parent", kind)
	}
	return srvcerror.New(ErrCodeInvalidParent, msg).
		SetKind(srvcerror.KindValidation).
		SetHttpStatusCode(http.StatusBadRequest)
}

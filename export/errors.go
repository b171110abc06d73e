package export

import (
	"fmt"
	"net/http"

	"github.com/evaltrack/backend/srvcerror"
)

const ErrCodeExportDisabled = "export_disabled"

func newErrExportDisabled() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeExportDisabled,
		fmt.Sprintf("choose a project and a date range of at most %d days", int(MaxSpan.Hours()/24)),
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeUnsupportedFile = "unsupported_file"

func newErrUnsupportedFile(mime string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUnsupportedFile,
		fmt.Sprintf("expected an xlsx or csv file, got %s", mime),
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusUnsupportedMediaType)
}

const ErrCodeMissingColumn = "missing_column"

func newErrMissingColumn(column string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeMissingColumn,
		fmt.Sprintf("participant sheet has no %q column", column),
	).SetKind(srvcerror.KindValidation).SetHttpStatusCode(http.StatusBadRequest)
}

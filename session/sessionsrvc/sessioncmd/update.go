package sessioncmd

import (
	"context"

	"github.com/evaltrack/backend/session/domain"
	"github.com/google/uuid"
)

// UpdateSessionFunc reads the session, applies edit and writes the result
// back atomically. An error returned by edit aborts the write.
type UpdateSessionFunc func(
	ctx context.Context,
	id uuid.UUID,
	edit func(s domain.Session) (domain.Session, error),
) error

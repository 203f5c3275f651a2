package viewer

import (
	"context"
	"errors"
)

// ErrNoNextPage is returned by NextPage when the viewer's page-turn control
// cannot be located. This is the natural end of a limited preview, not a
// navigation fault.
var ErrNoNextPage = errors.New("viewer: next-page control not found")

// Session is one live scripted browser session against the preview viewer.
// Close must be safe to call on every exit path, including after errors.
type Session interface {
	Open(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
	NextPage(ctx context.Context) error
	Close()
}

// Factory acquires sessions. The core depends only on acquire/release; how
// a browser executable is located stays behind this boundary.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

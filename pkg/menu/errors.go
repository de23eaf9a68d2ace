package menu

import "errors"

var (
	// ErrNotFound is returned by a Transport when the message, channel or
	// reaction targeted by a call no longer exists.
	ErrNotFound = errors.New("menu: target not found")
	// ErrForbidden is returned by a Transport when the bot lacks permission,
	// which is always the case when removing other users' reactions in DMs.
	ErrForbidden = errors.New("menu: forbidden")
	// ErrTooManyButtons means a control declares more reactions than a
	// message can hold.
	ErrTooManyButtons = errors.New("menu: too many buttons")
	// ErrNoView means a control has neither a view nor raw content to render.
	ErrNoView = errors.New("menu: control has nothing to render")
)

// IsTransient reports whether err comes from a message or reaction that
// vanished, or a permission the bot does not have. Both are expected under
// concurrent deletion and are never surfaced.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}

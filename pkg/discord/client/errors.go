package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// Discord JSON error codes the engine treats as expected.
const (
	codeUnknownChannel     = 10003
	codeUnknownMessage     = 10008
	codeUnknownEmoji       = 10014
	codeMissingAccess      = 50001
	codeCannotExecuteOnDM  = 50003
	codeMissingPermissions = 50013
)

// classify wraps REST failures in menu.ErrNotFound or menu.ErrForbidden when
// they mean the message or emoji vanished or the bot lacks access.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	code := 0
	if restErr.Message != nil {
		code = restErr.Message.Code
	}
	status := 0
	if restErr.Response != nil {
		status = restErr.Response.StatusCode
	}

	switch {
	case code == codeUnknownChannel, code == codeUnknownMessage, code == codeUnknownEmoji, status == http.StatusNotFound:
		return fmt.Errorf("%s: %w: %w", op, menu.ErrNotFound, err)
	case code == codeMissingAccess, code == codeCannotExecuteOnDM, code == codeMissingPermissions, status == http.StatusForbidden:
		return fmt.Errorf("%s: %w: %w", op, menu.ErrForbidden, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

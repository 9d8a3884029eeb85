package aggregate

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/errcode"
)

// UpstreamUnavailableError is returned when the search service fails for
// the count probe or a page after all attempts.
func UpstreamUnavailableError(offset int, err error) error {
	msg := "Occurrence search is unavailable (offset <em>%d</em>)"
	vars := []any{offset}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.UpstreamUnavailableError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: page at offset %d failed: %w",
			fn.Name(), offset, err),
	}
}

// ScratchError is returned when a batch cannot be saved or restored.
func ScratchError(action, key string, err error) error {
	code := errcode.ScratchWriteError
	switch action {
	case "read", "decode":
		code = errcode.ScratchReadError
	case "delete":
		code = errcode.ScratchDeleteError
	}
	msg := "Cannot %s scratch batch <em>%s</em>"
	vars := []any{action, key}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: code,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot %s %s: %w", fn.Name(), action, key, err),
	}
}

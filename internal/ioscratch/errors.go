package ioscratch

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/errcode"
)

// OpenError is returned when a scratch backend cannot be initialized.
func OpenError(backend, dir string, err error) error {
	msg := "Cannot open <em>%s</em> scratch storage at %s"
	vars := []any{backend, dir}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ScratchOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot open %s store: %w", fn.Name(), backend, err),
	}
}

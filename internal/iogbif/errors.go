package iogbif

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/errcode"
)

// DecodeError is returned when a page response is not valid JSON.
func DecodeError(offset int, err error) error {
	msg := "Cannot decode occurrence page at offset <em>%d</em>"
	vars := []any{offset}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.UpstreamDecodeError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot decode page: %w", fn.Name(), err),
	}
}

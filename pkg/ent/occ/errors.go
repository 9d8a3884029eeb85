package occ

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/errcode"
)

// InvalidQueryError is returned for missing or malformed search
// parameters.
func InvalidQueryError(geometry string, err error) error {
	msg := "Invalid search geometry <em>%s</em>"
	if len(geometry) > 40 {
		geometry = geometry[:40] + "..."
	}
	vars := []any{geometry}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InvalidQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: invalid query: %w", fn.Name(), err),
	}
}

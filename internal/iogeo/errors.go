package iogeo

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/errcode"
)

// GeocodeUnavailableError means the administrative area of a location
// could not be determined. It is different from having no statuses.
func GeocodeUnavailableError(lat, lon float64, err error) error {
	msg := "Cannot determine region and department for <em>%.5f, %.5f</em>"
	vars := []any{lat, lon}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.GeocodeUnavailableError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: reverse geocoding failed: %w", fn.Name(), err),
	}
}

package gnflore

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/errcode"
)

func InvalidLocationError(q StatusQuery, err error) error {
	msg := "Invalid location <em>%v, %v</em> with radius <em>%v km</em>"
	vars := []any{q.Lat, q.Lon, q.RadiusKm}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.InvalidQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: %w", fn.Name(), err),
	}
}

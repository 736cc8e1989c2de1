package sim

import "errors"

var (
	errUnlock  = errors.New("sim: unlock failed")
	errDisplay = errors.New("sim: display failed")
	errLED     = errors.New("sim: led failed")
)

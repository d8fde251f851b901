package meshtomesh

import (
	"fmt"
	"strings"
)

// InterpolationMethod selects how cells of the two meshes are paired
type InterpolationMethod int

const (
	// Direct pairs congruent cells one to one
	Direct InterpolationMethod = iota
	// CellVolumeWeight weights every overlapping pair by its intersection
	// volume
	CellVolumeWeight
)

var methodNames = [...]string{"direct", "cellVolumeWeight"}

func (im InterpolationMethod) Valid() bool {
	return im >= Direct && im <= CellVolumeWeight
}

func (im InterpolationMethod) String() string {
	if !im.Valid() {
		return fmt.Sprintf("InterpolationMethod(%d)", int(im))
	}
	return methodNames[im]
}

// ParseInterpolationMethod accepts the method names case insensitively, with
// "map" as an alias of "direct"
func ParseInterpolationMethod(name string) (InterpolationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "direct", "map":
		return Direct, nil
	case "cellvolumeweight":
		return CellVolumeWeight, nil
	}
	return Direct, fmt.Errorf("%w: %q", ErrInvalidMethod, name)
}

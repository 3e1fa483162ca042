package transaction

import (
	"reflect"

	"github.com/marmos91/sdcgo/pkg/mdib"
)

// descriptorChanged reports whether working differs from baseline in any
// field other than DescriptorVersion.
func descriptorChanged(baseline, working *mdib.Descriptor) bool {
	if baseline == nil {
		return true
	}
	b := baseline.Clone()
	w := working.Clone()
	b.DescriptorVersion, w.DescriptorVersion = 0, 0
	return !reflect.DeepEqual(b, w)
}

// stateChanged reports whether working differs from baseline in any field
// other than StateVersion and DescriptorVersion.
func stateChanged(baseline, working *mdib.State) bool {
	if baseline == nil {
		return true
	}
	b := baseline.Clone()
	w := working.Clone()
	b.StateVersion, w.StateVersion = 0, 0
	b.DescriptorVersion, w.DescriptorVersion = 0, 0
	return !reflect.DeepEqual(b, w)
}

//go:build !linux

package region

func populate([]byte, bool) error { return errNoPopulate }

//go:build !unix

package opengine

func deviceID(string) (uint64, bool) {
	return 0, false
}

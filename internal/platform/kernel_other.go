//go:build !unix && !windows

package platform

func KernelName() (string, error) {
	return "", ErrUnsupported
}

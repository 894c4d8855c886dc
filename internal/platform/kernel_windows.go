//go:build windows

package platform

// KernelName returns "Windows"; there is no uname on windows.
func KernelName() (string, error) {
	return "Windows", nil
}

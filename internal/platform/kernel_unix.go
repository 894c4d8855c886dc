//go:build unix

package platform

import "golang.org/x/sys/unix"

// KernelName returns the operating system name as reported by uname(2).
func KernelName() (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(u.Sysname[:]), nil
}

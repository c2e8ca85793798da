//go:build linux || darwin || freebsd

package mmap

import (
	"golang.org/x/sys/unix"
)

// mapFile maps length bytes of fd starting at offset 0
func mapFile(fd int, length int, writable bool) ([]byte, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	return unix.Mmap(fd, 0, length, prot, unix.MAP_SHARED)
}

// mapAnon maps length bytes of zeroed private memory
func mapAnon(length int) ([]byte, error) {
	return unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// unmap wraps the munmap system call
func unmap(b []byte) error {
	return unix.Munmap(b)
}

// protectReadOnly drops write access to the mapping
func protectReadOnly(b []byte) error {
	return unix.Mprotect(b, unix.PROT_READ)
}

// adviseSequential hints the kernel that b will be read front to back
func adviseSequential(b []byte) error {
	return unix.Madvise(b, unix.MADV_SEQUENTIAL)
}

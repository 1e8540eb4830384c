//go:build unix && !linux

package mmap

const reserveFlags = 0

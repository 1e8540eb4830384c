package mmap

import "golang.org/x/sys/unix"

const reserveFlags = unix.MAP_NORESERVE

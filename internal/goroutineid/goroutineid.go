// Package goroutineid identifies the calling goroutine, for the narrow case of
// a component detecting re-entry from a goroutine it owns.
package goroutineid

import (
	"bytes"
	"runtime"
	"sync"
)

// header is the start of the first line runtime.Stack writes.
var header = []byte("goroutine ")

// 64 bytes comfortably covers "goroutine <id> [<state>]:".
var bufs = sync.Pool{New: func() any { return new([64]byte) }}

// Get returns the id of the calling goroutine, or 0 if it cannot be
// determined. Ids are never reused while the goroutine is alive.
func Get() int64 {
	buf := bufs.Get().(*[64]byte)
	defer bufs.Put(buf)
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse reads the decimal id following the "goroutine " header. It does not
// allocate.
func parse(stack []byte) int64 {
	rest, ok := bytes.CutPrefix(stack, header)
	if !ok {
		return 0
	}
	var id int64
	for i, b := range rest {
		if b < '0' || b > '9' {
			if i == 0 {
				return 0
			}
			return id
		}
		id = id*10 + int64(b-'0')
	}
	return id
}

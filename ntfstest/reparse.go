package ntfstest

import "unicode/utf16"

// BuildMountPointPayload encodes a MOUNT_POINT (junction) reparse
// payload for target, in the exact layout linkresolver.ParseReparseBuffer
// expects at probe offset 0: four u16 header fields followed by the
// UTF-16LE path buffer, with the substitute and print names sharing the
// same range.
func BuildMountPointPayload(target string) []byte {
	pathBuf := encodeUTF16LE(target)
	header := make([]byte, 8)
	putU16(header, 0, 0)
	putU16(header, 2, uint16(len(pathBuf)))
	putU16(header, 4, 0)
	putU16(header, 6, uint16(len(pathBuf)))
	return append(header, pathBuf...)
}

// BuildSymlinkPayload encodes a SYMLINK reparse payload for target.
// relative sets flags bit 0.
func BuildSymlinkPayload(target string, relative bool) []byte {
	pathBuf := encodeUTF16LE(target)
	header := make([]byte, 12)
	putU16(header, 0, 0)
	putU16(header, 2, uint16(len(pathBuf)))
	putU16(header, 4, 0)
	putU16(header, 6, uint16(len(pathBuf)))
	var flags uint32
	if relative {
		flags = 1
	}
	putU32(header, 8, flags)
	return append(header, pathBuf...)
}

// WithTagHeader prepends the 8-byte ReparseTag/ReparseDataLength/
// Reserved header that some reparse buffer producers leave in front of
// the payload, forcing linkresolver.ParseReparseBuffer's offset-8 probe
// to win instead of its offset-0 probe.
func WithTagHeader(tag uint32, payload []byte) []byte {
	header := make([]byte, 8)
	putU32(header, 0, tag)
	putU16(header, 4, uint16(len(payload)))
	putU16(header, 6, 0)
	return append(header, payload...)
}

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		buf[2*i] = byte(u)
		buf[2*i+1] = byte(u >> 8)
	}
	return buf
}

func putU16(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

func putU32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

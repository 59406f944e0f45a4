// Package linkresolver implements the Link Resolver (C6): reparse
// buffer decoding and iterative, cycle-checked target resolution.
package linkresolver

import (
	"strings"
	"sync/atomic"
	"unicode/utf16"

	"github.com/noxer/bytewriter"
	"golang.org/x/text/encoding/unicode"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
)

// Kind identifies the dereferenced nature of a reparse point, the
// tagged variant spec.md §9 describes: {None, Junction, SymbolicFile,
// SymbolicDirectory, HardLink}. HardLink is never produced by this
// package (spec.md §9 permits omitting hard-link detection) but is
// kept in the enum so callers have a stable switch surface.
type Kind int

const (
	KindNone Kind = iota
	KindJunction
	KindSymbolicFile
	KindSymbolicDirectory
	KindHardLink
)

// Tag values this resolver understands; any other tag fails with
// UnsupportedReparseTag.
const (
	TagMountPoint uint32 = 0xA0000003
	TagSymlink    uint32 = 0xA000000C
)

// ParsedTarget is the decoded form of a reparse buffer.
type ParsedTarget struct {
	Kind         Kind
	RawTarget    string // substitute name as decoded, any `\??\` prefix still present
	PrintName    string
	IsRelative   bool
	HeaderOffset int // 0 or 8: which probe offset produced a valid path
}

// utf16Decoder decodes the UTF-16LE path buffer embedded in a reparse
// buffer. golang.org/x/text's unicode package is the idiomatic way to
// do this in Go rather than hand-rolling unicode/utf16 byte-pairing,
// and is already present in the pack via yamitzky-xlrd-go's go.mod.
var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// ParseReparseBuffer decodes tag/content into a ParsedTarget. It
// probes both candidate header layouts (content starting right at the
// MOUNT_POINT/SYMLINK payload, and content still carrying the 8-byte
// tag/data_length/reserved header in front of it) per the design note
// in spec.md §9, and keeps whichever probe yields a syntactically
// valid path containing a separator. isDirectory distinguishes
// SymbolicFile from SymbolicDirectory for a SYMLINK tag.
func ParseReparseBuffer(tag uint32, content []byte, isDirectory bool) (ParsedTarget, error) {
	kind, fixedLen := kindAndFixedLen(tag, isDirectory)
	if kind == KindNone {
		return ParsedTarget{}, ntfserrors.Newf(ntfserrors.KindUnsupportedReparseTag, "tag 0x%08X", tag).
			WithMessage("reparse tag not in {MOUNT_POINT, SYMLINK}")
	}

	for _, probeOffset := range []int{0, 8} {
		if probeOffset >= len(content) {
			continue
		}
		parsed, ok := parsePayload(content[probeOffset:], tag, fixedLen, kind)
		if ok && looksLikePath(parsed.RawTarget) {
			parsed.HeaderOffset = probeOffset
			recordProbeOffset(probeOffset)
			return parsed, nil
		}
	}

	return ParsedTarget{}, ntfserrors.Newf(ntfserrors.KindUnsupportedReparseTag, "tag 0x%08X", tag).
		WithMessage("no header-offset probe produced a valid path")
}

// probeOffset0Wins/probeOffset8Wins tally which header-offset probe
// produced the winning parse, across every ParseReparseBuffer call in
// the process. This is the diagnostic SPEC_FULL.md §6 describes:
// `ntfscp --verbose` reports it after a run, and tests can reset and
// inspect it to pin which layout a fixture actually exercised.
var (
	probeOffset0Wins int64
	probeOffset8Wins int64
)

func recordProbeOffset(offset int) {
	switch offset {
	case 0:
		atomic.AddInt64(&probeOffset0Wins, 1)
	case 8:
		atomic.AddInt64(&probeOffset8Wins, 1)
	}
}

// ProbeStats returns how many reparse buffers were decoded with the
// payload starting at offset 0 versus offset 8, since the process
// started or the last ResetProbeStats call.
func ProbeStats() (offset0Wins, offset8Wins int64) {
	return atomic.LoadInt64(&probeOffset0Wins), atomic.LoadInt64(&probeOffset8Wins)
}

// ResetProbeStats zeroes the counters. Tests call this before decoding
// a fixture so ProbeStats reflects only that fixture's calls.
func ResetProbeStats() {
	atomic.StoreInt64(&probeOffset0Wins, 0)
	atomic.StoreInt64(&probeOffset8Wins, 0)
}

func kindAndFixedLen(tag uint32, isDirectory bool) (Kind, int) {
	switch tag {
	case TagMountPoint:
		return KindJunction, 8 // subst_off,subst_len,print_off,print_len (4x u16)
	case TagSymlink:
		if isDirectory {
			return KindSymbolicDirectory, 12 // + flags u32
		}
		return KindSymbolicFile, 12
	default:
		return KindNone, 0
	}
}

// parsePayload reads the fixed-size header fields and decodes the
// substitute/print names out of the trailing path buffer.
func parsePayload(payload []byte, tag uint32, fixedLen int, kind Kind) (ParsedTarget, bool) {
	if len(payload) < fixedLen {
		return ParsedTarget{}, false
	}

	substOff := le16(payload, 0)
	substLen := le16(payload, 2)
	printOff := le16(payload, 4)
	printLen := le16(payload, 6)

	var isRelative bool
	if tag == TagSymlink {
		flags := le32(payload, 8)
		isRelative = flags&1 != 0
	}

	pathBuffer := payload[fixedLen:]

	subst, ok := decodeUTF16Range(pathBuffer, substOff, substLen)
	if !ok {
		return ParsedTarget{}, false
	}
	print, _ := decodeUTF16Range(pathBuffer, printOff, printLen)

	return ParsedTarget{
		Kind:       kind,
		RawTarget:  subst,
		PrintName:  print,
		IsRelative: isRelative,
	}, true
}

func decodeUTF16Range(buf []byte, offset, length uint16) (string, bool) {
	start := int(offset)
	end := start + int(length)
	if start < 0 || end > len(buf) || start > end {
		return "", false
	}

	// Copy the slice out of the shared payload buffer before decoding:
	// the reparse Content backing array may be reused by the
	// interpreter across calls, and bytewriter gives us a plain
	// io.Writer-shaped accumulator instead of a hand-rolled append.
	acc := bytewriter.New(make([]byte, 0, end-start))
	acc.Write(buf[start:end])
	raw := acc.Bytes()

	decoded, err := utf16Decoder.Bytes(raw)
	if err == nil {
		return string(decoded), true
	}

	// Fall back to manual decoding: some reparse producers emit
	// buffers with an odd trailing byte or a lone surrogate that trips
	// up the strict x/text decoder.
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	return string(utf16.Decode(units)), true
}

func le16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

// looksLikePath is the probe's validity check: a UTF-16 decode that
// produced at least one path separator and no replacement-character
// garbage is accepted as "the right header offset".
func looksLikePath(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsRune(s, '�') {
		return false
	}
	return strings.ContainsAny(s, `\/`)
}

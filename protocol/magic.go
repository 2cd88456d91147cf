package protocol

import (
	"encoding/binary"
	"io"

	"github.com/Masterminds/semver/v3"
)

// Magic is one of the six 7-byte preambles identifying protocol side and
// role.
type Magic [7]byte

var (
	MagicRendererToApp         = Magic{'B', 'O', 'L', 'D', 'U', 'I', 0}
	MagicAppToRenderer         = Magic{'B', 'O', 'L', 'D', 'U', 'I', 1}
	MagicRendererToExternalApp = Magic{'B', 'O', 'L', 'D', 'U', 'I', 2}
	MagicExternalAppToRenderer = Magic{'B', 'O', 'L', 'D', 'U', 'I', 3}
	MagicWmRequest             = Magic{'B', 'O', 'L', 'D', 'U', 'I', 4}
	MagicWmResponse            = Magic{'B', 'O', 'L', 'D', 'U', 'I', 5}
)

// WriteMagic writes the 7-byte preamble.
func WriteMagic(w io.Writer, m Magic) error {
	_, err := w.Write(m[:])
	return err
}

// ReadMagic reads and validates a 7-byte preamble against want.
func ReadMagic(r io.Reader, want Magic) error {
	var got Magic
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return NewError(ErrorMagicMismatch, "failed to read magic: %v", err)
	}
	if got != want {
		return NewError(ErrorMagicMismatch, "got %v, want %v", got, want)
	}
	return nil
}

// Hello/HelloResponse carry the min/max supported protocol version and a
// reserved forward-compatibility tail. Current protocols
// require ExtraLen == 0; any non-zero ExtraLen payload that follows is
// skipped without interpretation.
type Hello struct {
	MinMajor uint32
	MinMinor uint32
	MaxMajor uint32
	ExtraLen uint32
}

type HelloResponse struct {
	MinMajor uint32
	MinMinor uint32
	MaxMajor uint32
	ExtraLen uint32
	Error    *Error // non-nil iff the responder rejected the handshake
}

// WriteHelloResponse writes a HelloResponse: its four version/length
// fields, a presence byte for Error, the Error payload if present, then
// ExtraLen zero bytes.
func WriteHelloResponse(w io.Writer, h HelloResponse) error {
	if err := writeHelloFields(w, h.MinMajor, h.MinMinor, h.MaxMajor, h.ExtraLen); err != nil {
		return err
	}
	if h.Error != nil {
		if _, err := w.Write([]byte{1}); err != nil {
			return err
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(h.Error.Code))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
		text := []byte(h.Error.Text)
		var lb [8]byte
		binary.LittleEndian.PutUint64(lb[:], uint64(len(text)))
		if _, err := w.Write(lb[:]); err != nil {
			return err
		}
		if _, err := w.Write(text); err != nil {
			return err
		}
	} else if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	return skipExtra(w, h.ExtraLen, true)
}

// ReadHelloResponse reads a HelloResponse written by WriteHelloResponse.
func ReadHelloResponse(r io.Reader) (HelloResponse, error) {
	minMajor, minMinor, maxMajor, extraLen, err := readHelloFields(r)
	if err != nil {
		return HelloResponse{}, err
	}

	var hasErr [1]byte
	if _, err := io.ReadFull(r, hasErr[:]); err != nil {
		return HelloResponse{}, NewError(ErrorMalformedFrame, "truncated hello response error flag: %v", err)
	}
	resp := HelloResponse{MinMajor: minMajor, MinMinor: minMinor, MaxMajor: maxMajor, ExtraLen: extraLen}
	if hasErr[0] != 0 {
		var cb [4]byte
		if _, err := io.ReadFull(r, cb[:]); err != nil {
			return HelloResponse{}, NewError(ErrorMalformedFrame, "truncated hello response error code: %v", err)
		}
		var lb [8]byte
		if _, err := io.ReadFull(r, lb[:]); err != nil {
			return HelloResponse{}, NewError(ErrorMalformedFrame, "truncated hello response error text length: %v", err)
		}
		text := make([]byte, binary.LittleEndian.Uint64(lb[:]))
		if _, err := io.ReadFull(r, text); err != nil {
			return HelloResponse{}, NewError(ErrorMalformedFrame, "truncated hello response error text: %v", err)
		}
		resp.Error = &Error{Code: ErrorCode(binary.LittleEndian.Uint32(cb[:])), Text: string(text)}
	}
	if err := skipExtra(r, extraLen, false); err != nil {
		return HelloResponse{}, err
	}
	return resp, nil
}

// CurrentMajor/CurrentMinor are this runtime's protocol version, used for
// both the A2R and external-widget channels.
const (
	CurrentMajor uint32 = 0
	CurrentMinor uint32 = 1
)

func writeHelloFields(w io.Writer, minMajor, minMinor, maxMajor, extraLen uint32) error {
	var b [16]byte
	binary.LittleEndian.PutUint32(b[0:4], minMajor)
	binary.LittleEndian.PutUint32(b[4:8], minMinor)
	binary.LittleEndian.PutUint32(b[8:12], maxMajor)
	binary.LittleEndian.PutUint32(b[12:16], extraLen)
	_, err := w.Write(b[:])
	return err
}

func readHelloFields(r io.Reader) (minMajor, minMinor, maxMajor, extraLen uint32, err error) {
	var b [16]byte
	if _, err = io.ReadFull(r, b[:]); err != nil {
		return 0, 0, 0, 0, NewError(ErrorMalformedFrame, "truncated hello: %v", err)
	}
	minMajor = binary.LittleEndian.Uint32(b[0:4])
	minMinor = binary.LittleEndian.Uint32(b[4:8])
	maxMajor = binary.LittleEndian.Uint32(b[8:12])
	extraLen = binary.LittleEndian.Uint32(b[12:16])
	return
}

// WriteHello writes a Hello struct followed by ExtraLen zero bytes.
func WriteHello(w io.Writer, h Hello) error {
	if err := writeHelloFields(w, h.MinMajor, h.MinMinor, h.MaxMajor, h.ExtraLen); err != nil {
		return err
	}
	return skipExtra(w, h.ExtraLen, true)
}

// ReadHello reads a Hello struct and discards its extra bytes.
func ReadHello(r io.Reader) (Hello, error) {
	minMajor, minMinor, maxMajor, extraLen, err := readHelloFields(r)
	if err != nil {
		return Hello{}, err
	}
	if err := skipExtra(r, extraLen, false); err != nil {
		return Hello{}, err
	}
	return Hello{MinMajor: minMajor, MinMinor: minMinor, MaxMajor: maxMajor, ExtraLen: extraLen}, nil
}

func skipExtra(rw any, n uint32, writing bool) error {
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	if writing {
		_, err := rw.(io.Writer).Write(buf)
		return err
	}
	_, err := io.ReadFull(rw.(io.Reader), buf)
	return err
}

// CheckVersion implements the handshake compatibility rule:
//
//	latest_major <= max_major && (latest_major > min_major ||
//	    (latest_major == min_major && latest_minor >= min_minor))
//
// Both versions are held as semver.Version values; the minimum-minor bound
// is checked with [semver.Version.Compare], and the major bounds compare
// the Major() components directly.
func CheckVersion(minMajor, minMinor, maxMajor uint32) error {
	latest := semver.New(uint64(CurrentMajor), uint64(CurrentMinor), 0, "", "")
	min := semver.New(uint64(minMajor), uint64(minMinor), 0, "", "")
	max := semver.New(uint64(maxMajor), 0, 0, "", "")

	if latest.Major() > max.Major() {
		return NewError(ErrorVersionMismatch, "major %d exceeds peer max %d", latest.Major(), max.Major())
	}
	if latest.Compare(min) < 0 && latest.Major() == min.Major() {
		return NewError(ErrorVersionMismatch, "version %s below peer min %s", latest, min)
	}
	if latest.Major() < min.Major() {
		return NewError(ErrorVersionMismatch, "major %d below peer min %d", latest.Major(), min.Major())
	}
	return nil
}

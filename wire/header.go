// Package wire defines the fixed-layout, packed wire structs of §3/§6 and
// the explicit byte-order wrappers around them. Local in-memory copies are
// always host-order Go values; (Un)Marshal is the only place byte order is
// chosen, so the rest of the module never has to reason about it.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Flags is the framing header's bit set (§3 "Framed message").
type Flags uint8

const (
	Fragmented   Flags = 0x01
	LastFragment Flags = 0x02
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

func (f Flags) String() string {
	switch {
	case f == 0:
		return "single"
	case f == Fragmented:
		return "fragmented"
	case f == Fragmented|LastFragment:
		return "fragmented|last"
	default:
		return fmt.Sprintf("flags(%#x)", uint8(f))
	}
}

// FramingHeaderSize is sizeof{u8 flags}, §6 "Framing header".
const FramingHeaderSize = 1

// MarshalFramingHeader writes the 1-byte framing header into dst[0].
func MarshalFramingHeader(dst []byte, flags Flags) {
	dst[0] = byte(flags)
}

// UnmarshalFramingHeader reads the framing header; the caller is
// responsible for having checked len(src) >= FramingHeaderSize.
func UnmarshalFramingHeader(src []byte) Flags {
	return Flags(src[0])
}

// Action is the application command's discriminator (§6).
type Action uint8

const (
	ActionSearch Action = 0x00
	ActionAdd    Action = 0x01
)

func (a Action) String() string {
	switch a {
	case ActionSearch:
		return "SEARCH"
	case ActionAdd:
		return "ADD"
	default:
		return fmt.Sprintf("action(%#x)", uint8(a))
	}
}

// RespType is the application response's discriminator (§6).
type RespType uint8

const (
	RespResult RespType = 0x00
	RespDone   RespType = 0x01
)

func (t RespType) String() string {
	switch t {
	case RespResult:
		return "RESULT"
	case RespDone:
		return "DONE"
	default:
		return fmt.Sprintf("resp(%#x)", uint8(t))
	}
}

// CommandHeaderSize is sizeof{u8 action; u16 id; u64 size}, host byte order.
const CommandHeaderSize = 1 + 2 + 8

// SearchCommand is the client->service application command (§3, §6).
type SearchCommand struct {
	Action Action
	ID     uint16
	Size   uint64 // total length including this header, per §3
	Body   []byte
}

// Marshal encodes header+body into dst, which must be at least
// CommandHeaderSize+len(Body) bytes. Host byte order is taken to be
// little-endian, the overwhelming majority case; this is an explicit,
// singular choice rather than native struct packing so wire bytes are
// reproducible across build platforms.
func (c *SearchCommand) Marshal(dst []byte) {
	dst[0] = byte(c.Action)
	binary.LittleEndian.PutUint16(dst[1:3], c.ID)
	binary.LittleEndian.PutUint64(dst[3:11], c.Size)
	copy(dst[CommandHeaderSize:], c.Body)
}

// MarshalNew allocates and returns the encoded command, setting Size
// correctly regardless of what the caller populated it with.
func (c *SearchCommand) MarshalNew() []byte {
	c.Size = uint64(CommandHeaderSize + len(c.Body))
	buf := make([]byte, c.Size)
	c.Marshal(buf)
	return buf
}

// ErrSizeMismatch is returned when the header's declared Size does not
// equal the assembled message length (§3 invariant, §7 "Framing violation").
type ErrSizeMismatch struct {
	Declared, Actual int
}

func (e *ErrSizeMismatch) Error() string {
	return fmt.Sprintf("size field %d does not match assembled length %d", e.Declared, e.Actual)
}

// ErrShortUnit is returned when a reassembled message is shorter than its
// own fixed-size header, for any of the three wire-level unit kinds; kept
// as a single exported type, on the same errors.As footing as
// ErrSizeMismatch, rather than one unexported sentinel per kind, so a
// caller outside this package can distinguish "too short" from other
// decode failures without string-matching (§7 "Framing violation").
type ErrShortUnit struct {
	Kind string // "search command", "search response", or "flood message"
	Min  int
	Got  int
}

func (e *ErrShortUnit) Error() string {
	return fmt.Sprintf("%s shorter than header (%d bytes, got %d)", e.Kind, e.Min, e.Got)
}

// UnmarshalSearchCommand decodes a full reassembled application message.
func UnmarshalSearchCommand(src []byte) (*SearchCommand, error) {
	if len(src) < CommandHeaderSize {
		return nil, &ErrShortUnit{Kind: "search command", Min: CommandHeaderSize, Got: len(src)}
	}
	c := &SearchCommand{
		Action: Action(src[0]),
		ID:     binary.LittleEndian.Uint16(src[1:3]),
		Size:   binary.LittleEndian.Uint64(src[3:11]),
	}
	if int(c.Size) != len(src) {
		return nil, &ErrSizeMismatch{Declared: int(c.Size), Actual: len(src)}
	}
	c.Body = src[CommandHeaderSize:]
	return c, nil
}

// RespHeaderSize is sizeof{u8 type; u16 id; u64 size}, host byte order.
const RespHeaderSize = 1 + 2 + 8

// SearchResponse is the service->client application response (§3, §6).
type SearchResponse struct {
	Type RespType
	ID   uint16
	Size uint64
	Body []byte
}

func (r *SearchResponse) Marshal(dst []byte) {
	dst[0] = byte(r.Type)
	binary.LittleEndian.PutUint16(dst[1:3], r.ID)
	binary.LittleEndian.PutUint64(dst[3:11], r.Size)
	copy(dst[RespHeaderSize:], r.Body)
}

func (r *SearchResponse) MarshalNew() []byte {
	r.Size = uint64(RespHeaderSize + len(r.Body))
	buf := make([]byte, r.Size)
	r.Marshal(buf)
	return buf
}

func UnmarshalSearchResponse(src []byte) (*SearchResponse, error) {
	if len(src) < RespHeaderSize {
		return nil, &ErrShortUnit{Kind: "search response", Min: RespHeaderSize, Got: len(src)}
	}
	r := &SearchResponse{
		Type: RespType(src[0]),
		ID:   binary.LittleEndian.Uint16(src[1:3]),
		Size: binary.LittleEndian.Uint64(src[3:11]),
	}
	if int(r.Size) != len(src) {
		return nil, &ErrSizeMismatch{Declared: int(r.Size), Actual: len(src)}
	}
	r.Body = src[RespHeaderSize:]
	return r, nil
}

// FloodType is the flood message's discriminator (§3).
type FloodType uint8

const (
	FloodRequest  FloodType = 0
	FloodResponse FloodType = 1
)

func (t FloodType) String() string {
	if t == FloodRequest {
		return "REQUEST"
	}
	return "RESPONSE"
}

// FloodHeaderSize is sizeof{u64 flow_id; u8 ttl; u8 type}, flow_id
// big-endian on the wire per §3/§6.
const FloodHeaderSize = 8 + 1 + 1

// FloodMessage is the peer->peer flood message (§3).
type FloodMessage struct {
	FlowID uint64
	TTL    uint8
	Type   FloodType
	Body   []byte
}

func (m *FloodMessage) Marshal(dst []byte) {
	binary.BigEndian.PutUint64(dst[0:8], m.FlowID)
	dst[8] = m.TTL
	dst[9] = byte(m.Type)
	copy(dst[FloodHeaderSize:], m.Body)
}

func (m *FloodMessage) MarshalNew() []byte {
	buf := make([]byte, FloodHeaderSize+len(m.Body))
	m.Marshal(buf)
	return buf
}

func UnmarshalFloodMessage(src []byte) (*FloodMessage, error) {
	if len(src) < FloodHeaderSize {
		return nil, &ErrShortUnit{Kind: "flood message", Min: FloodHeaderSize, Got: len(src)}
	}
	m := &FloodMessage{
		FlowID: binary.BigEndian.Uint64(src[0:8]),
		TTL:    src[8],
		Type:   FloodType(src[9]),
	}
	m.Body = src[FloodHeaderSize:]
	return m, nil
}

package engine

import (
	"encoding/binary"
	"math"
)

// --------------------------------------------------------------------------
// Key Layout
// --------------------------------------------------------------------------
//
// All backend keys live in one of two namespaces:
//
//	data key:  'd' | type | len(key) u16BE | key | member bytes
//	meta key:  'm' | type | len(key) u16BE | key | slot u16BE
//
// The length prefix makes the (type, key) boundary unambiguous, so distinct
// (type, key, member) triples can never collide. Member encodings are chosen
// so byte-wise key order equals logical order (list indices and sorted-set
// scores are fixed-width big-endian with a sign bias).

// KeyType tags the collection type of a logical key.
type KeyType byte

const (
	TypeString KeyType = 'k'
	TypeList   KeyType = 'l'
	TypeHash   KeyType = 'h'
	TypeSet    KeyType = 's'
	TypeZSet   KeyType = 'z'
)

const (
	nsData byte = 'd'
	nsMeta byte = 'm'

	// zset sub-namespaces within the data range of one key
	zsetSubMember byte = 'v' // member -> score
	zsetSubScore  byte = 's' // (score, member) -> empty, orders by score
)

// ListInitialIndex is the midpoint of the unsigned index space. A fresh list
// starts with head == tail == ListInitialIndex so pushes can grow in both
// directions without underflow.
const ListInitialIndex uint64 = 0x8000000000000000

// --------------------------------------------------------------------------
// KeyEncoder
// --------------------------------------------------------------------------

// KeyEncoder derives backend byte keys from logical keys. It is stateless
// apart from the meta-slot counter and therefore safe for concurrent use.
// One encoder is created at startup with the configured meta slot count;
// the count must never change within a process lifetime (existing data would
// aggregate over the wrong number of slots).
type KeyEncoder struct {
	metaSlots uint16
	slotSel   ISelector
}

// NewKeyEncoder creates an encoder with the given meta-key shard count.
// metaSlots < 1 is treated as 1.
func NewKeyEncoder(metaSlots uint16) *KeyEncoder {
	if metaSlots < 1 {
		metaSlots = 1
	}
	return &KeyEncoder{
		metaSlots: metaSlots,
		slotSel:   NewRoundRobinSelector(),
	}
}

// MetaSlots returns the configured shard count N.
func (e *KeyEncoder) MetaSlots() uint16 {
	return e.metaSlots
}

// NextMetaSlot returns the meta slot for the next logical operation. Slots
// rotate globally (0, 1, ..., N-1, 0, ...) independent of the logical key;
// size reads must therefore always aggregate over all N slots.
func (e *KeyEncoder) NextMetaSlot() uint16 {
	return uint16(e.slotSel.Next(int(e.metaSlots)))
}

// header writes the shared prefix: namespace, type and length-framed key.
func header(ns byte, t KeyType, key []byte, tail int) []byte {
	buf := make([]byte, 0, 4+len(key)+tail)
	buf = append(buf, ns, byte(t))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(key)))
	return append(buf, key...)
}

// DataKey encodes the backend key for one member of a collection. A nil
// member encodes the collection identity key (used for strings).
func (e *KeyEncoder) DataKey(t KeyType, key, member []byte) []byte {
	return append(header(nsData, t, key, len(member)), member...)
}

// DataRange returns the half-open backend key range [start, end) that
// contains exactly the members of the given collection.
func (e *KeyEncoder) DataRange(t KeyType, key []byte) (start, end []byte) {
	start = header(nsData, t, key, 0)
	return start, PrefixNext(start)
}

// MetaKey encodes one metadata shard key of a collection.
func (e *KeyEncoder) MetaKey(t KeyType, key []byte, slot uint16) []byte {
	buf := header(nsMeta, t, key, 2)
	return binary.BigEndian.AppendUint16(buf, slot)
}

// MetaKeys encodes all N metadata shard keys of a collection, for
// aggregated size reads.
func (e *KeyEncoder) MetaKeys(t KeyType, key []byte) [][]byte {
	keys := make([][]byte, e.metaSlots)
	for slot := uint16(0); slot < e.metaSlots; slot++ {
		keys[slot] = e.MetaKey(t, key, slot)
	}
	return keys
}

// --------------------------------------------------------------------------
// Per-Type Helpers
// --------------------------------------------------------------------------

// StringKey encodes the backend key holding a string value.
func (e *KeyEncoder) StringKey(key []byte) []byte {
	return e.DataKey(TypeString, key, nil)
}

// ListMetaKey encodes the key holding a list's head/tail bounds. List bounds
// cannot be sharded, so lists always use slot 0.
func (e *KeyEncoder) ListMetaKey(key []byte) []byte {
	return e.MetaKey(TypeList, key, 0)
}

// ListDataKey encodes the key of the list element at the given raw index.
func (e *KeyEncoder) ListDataKey(key []byte, index uint64) []byte {
	var member [8]byte
	binary.BigEndian.PutUint64(member[:], index)
	return e.DataKey(TypeList, key, member[:])
}

// HashDataKey encodes the key of one hash field.
func (e *KeyEncoder) HashDataKey(key, field []byte) []byte {
	return e.DataKey(TypeHash, key, field)
}

// SetDataKey encodes the key of one set member.
func (e *KeyEncoder) SetDataKey(key, member []byte) []byte {
	return e.DataKey(TypeSet, key, member)
}

// ZSetMemberKey encodes the member->score key of a sorted set entry.
func (e *KeyEncoder) ZSetMemberKey(key, member []byte) []byte {
	return e.DataKey(TypeZSet, key, append([]byte{zsetSubMember}, member...))
}

// ZSetScoreKey encodes the score-ordered key of a sorted set entry. Scanning
// the score range yields entries ordered by (score, member).
func (e *KeyEncoder) ZSetScoreKey(key []byte, score float64, member []byte) []byte {
	sub := make([]byte, 0, 9+len(member))
	sub = append(sub, zsetSubScore)
	sub = append(sub, EncodeScore(score)...)
	sub = append(sub, member...)
	return e.DataKey(TypeZSet, key, sub)
}

// ZSetMemberRange returns the range containing all member->score keys.
func (e *KeyEncoder) ZSetMemberRange(key []byte) (start, end []byte) {
	start = e.DataKey(TypeZSet, key, []byte{zsetSubMember})
	return start, PrefixNext(start)
}

// ZSetScoreRange returns the range containing all score-ordered keys.
func (e *KeyEncoder) ZSetScoreRange(key []byte) (start, end []byte) {
	start = e.DataKey(TypeZSet, key, []byte{zsetSubScore})
	return start, PrefixNext(start)
}

// --------------------------------------------------------------------------
// Value Encodings
// --------------------------------------------------------------------------

// EncodeUint64 encodes v big-endian (order-preserving).
func EncodeUint64(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// DecodeUint64 decodes a big-endian u64; short input decodes to 0.
func DecodeUint64(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// EncodeInt64 stores a signed counter value (two's complement bits).
func EncodeInt64(v int64) []byte {
	return EncodeUint64(uint64(v))
}

// DecodeInt64 is the inverse of EncodeInt64.
func DecodeInt64(b []byte) int64 {
	return int64(DecodeUint64(b))
}

// EncodeListMeta encodes list bounds: elements live at [head, tail).
func EncodeListMeta(head, tail uint64) []byte {
	buf := make([]byte, 0, 16)
	buf = binary.BigEndian.AppendUint64(buf, head)
	return binary.BigEndian.AppendUint64(buf, tail)
}

// DecodeListMeta is the inverse of EncodeListMeta.
func DecodeListMeta(b []byte) (head, tail uint64) {
	if len(b) < 16 {
		return ListInitialIndex, ListInitialIndex
	}
	return binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:16])
}

// EncodeScore encodes a float64 so byte-wise comparison of the result equals
// numeric comparison of the input: positive floats get the sign bit flipped,
// negative floats are fully inverted.
func EncodeScore(score float64) []byte {
	bits := math.Float64bits(score)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return EncodeUint64(bits)
}

// DecodeScore is the inverse of EncodeScore.
func DecodeScore(b []byte) float64 {
	bits := DecodeUint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

// PrefixNext returns the smallest key strictly greater than every key with
// the given prefix, or nil if no such key exists (prefix is all 0xff).
func PrefixNext(prefix []byte) []byte {
	next := append([]byte(nil), prefix...)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			return next[:i+1]
		}
	}
	return nil
}

package engine

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"testing"
)

// TestDataKeyUniqueness tests that distinct (type, key, member) triples never
// produce the same backend key
func TestDataKeyUniqueness(t *testing.T) {
	e := NewKeyEncoder(1)

	triples := []struct {
		t      KeyType
		key    string
		member string
	}{
		{TypeString, "a", ""},
		{TypeHash, "a", ""},
		{TypeHash, "a", "b"},
		{TypeHash, "ab", ""},
		{TypeHash, "ab", "c"},
		{TypeHash, "a", "bc"},
		{TypeSet, "a", "b"},
		{TypeZSet, "a", "b"},
	}

	seen := make(map[string]string)
	for _, tr := range triples {
		k := string(e.DataKey(tr.t, []byte(tr.key), []byte(tr.member)))
		desc := fmt.Sprintf("(%c,%s,%s)", tr.t, tr.key, tr.member)
		if prev, ok := seen[k]; ok {
			t.Errorf("Key collision between %s and %s", prev, desc)
		}
		seen[k] = desc
	}
}

// TestDataRangeIsolation tests that the data range of one key never contains
// members of a key it is a prefix of
func TestDataRangeIsolation(t *testing.T) {
	e := NewKeyEncoder(1)

	start, end := e.DataRange(TypeHash, []byte("a"))
	other := e.HashDataKey([]byte("ab"), []byte("f"))

	if bytes.Compare(other, start) >= 0 && bytes.Compare(other, end) < 0 {
		t.Errorf("Range of key 'a' must not contain fields of key 'ab'")
	}

	own := e.HashDataKey([]byte("a"), []byte("f"))
	if bytes.Compare(own, start) < 0 || bytes.Compare(own, end) >= 0 {
		t.Errorf("Range of key 'a' must contain its own fields")
	}
}

// TestScoreEncodingOrder tests that byte-wise order of encoded scores equals
// numeric order
func TestScoreEncodingOrder(t *testing.T) {
	scores := []float64{
		math.Inf(-1), -1e300, -42.5, -1, -0.001, 0, 0.001, 1, 42.5, 1e300, math.Inf(1),
	}

	encoded := make([][]byte, len(scores))
	for i, s := range scores {
		encoded[i] = EncodeScore(s)
	}

	if !sort.SliceIsSorted(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	}) {
		t.Error("Encoded scores are not in numeric order")
	}

	// round trip
	for _, s := range scores {
		if got := DecodeScore(EncodeScore(s)); got != s {
			t.Errorf("DecodeScore(EncodeScore(%v)) = %v", s, got)
		}
	}
}

// TestListMetaCodec tests the list bounds encoding
func TestListMetaCodec(t *testing.T) {
	head, tail := DecodeListMeta(EncodeListMeta(ListInitialIndex-3, ListInitialIndex+5))
	if head != ListInitialIndex-3 || tail != ListInitialIndex+5 {
		t.Errorf("Round trip failed: got (%d, %d)", head, tail)
	}

	// short input decodes to an empty list
	head, tail = DecodeListMeta(nil)
	if head != ListInitialIndex || tail != ListInitialIndex {
		t.Errorf("Short input should decode to the initial bounds, got (%d, %d)", head, tail)
	}
}

// TestNextMetaSlotRotation tests that meta slots rotate over the full range
func TestNextMetaSlotRotation(t *testing.T) {
	e := NewKeyEncoder(4)

	want := []uint16{0, 1, 2, 3, 0, 1, 2, 3}
	for i, expected := range want {
		if got := e.NextMetaSlot(); got != expected {
			t.Fatalf("Call %d: expected slot %d, got %d", i, expected, got)
		}
	}
}

// TestMetaKeys tests that size reads cover all N shard keys
func TestMetaKeys(t *testing.T) {
	e := NewKeyEncoder(3)

	keys := e.MetaKeys(TypeHash, []byte("h"))
	if len(keys) != 3 {
		t.Fatalf("Expected 3 meta keys, got %d", len(keys))
	}

	seen := make(map[string]bool)
	for _, k := range keys {
		seen[string(k)] = true
	}
	if len(seen) != 3 {
		t.Errorf("Meta keys should be distinct, got %d unique of 3", len(seen))
	}
}

// TestPrefixNext tests the range upper bound computation
func TestPrefixNext(t *testing.T) {
	cases := []struct {
		in   []byte
		want []byte
	}{
		{[]byte{0x01}, []byte{0x02}},
		{[]byte{0x01, 0xff}, []byte{0x02}},
		{[]byte{0x01, 0x02, 0xff}, []byte{0x01, 0x03}},
		{[]byte{0xff, 0xff}, nil},
	}

	for _, c := range cases {
		if got := PrefixNext(c.in); !bytes.Equal(got, c.want) {
			t.Errorf("PrefixNext(%x) = %x, want %x", c.in, got, c.want)
		}
	}
}

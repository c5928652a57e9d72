package protocol

import (
	"testing"
)

// TestReplyEncodings tests the wire form of each reply variant
func TestReplyEncodings(t *testing.T) {
	cases := []struct {
		name  string
		reply Reply
		want  string
	}{
		{"simple", MakeSimpleReply("OK"), "+OK\r\n"},
		{"error", MakeErrorReply("ERR boom"), "-ERR boom\r\n"},
		{"int", MakeIntReply(-42), ":-42\r\n"},
		{"bulk", MakeBulkReply([]byte("hi")), "$2\r\nhi\r\n"},
		{"empty bulk", MakeBulkReply([]byte{}), "$0\r\n\r\n"},
		{"null bulk", MakeNullBulkReply(), "$-1\r\n"},
		{"multi bulk", MakeMultiBulkReply([][]byte{[]byte("a"), nil, []byte("bb")}), "*3\r\n$1\r\na\r\n$-1\r\n$2\r\nbb\r\n"},
		{"empty array", EmptyMultiBulkReply, "*0\r\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := string(c.reply.Bytes()); got != c.want {
				t.Errorf("Bytes() = %q, want %q", got, c.want)
			}
		})
	}
}

// TestErrorReplyIsError tests that error replies satisfy the error interface
func TestErrorReplyIsError(t *testing.T) {
	var err error = MakeErrorReply("ERR wrong type")
	if err.Error() != "ERR wrong type" {
		t.Errorf("Error() = %q", err.Error())
	}
}

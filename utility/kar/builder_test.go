// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"os"
	"testing"
	"time"
)

func TestAddAndWrite(t *testing.T) {
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := builder.Add("test", bytes.NewReader([]byte("idunvovkjnreovmegihjbrqlkmfrjnb"))); err != nil {
		t.Error(err)
	}
	if err := builder.Add("test2", bytes.NewReader([]byte("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"))); err != nil {
		t.Error(err)
	}

	if builder.Len() != 2 {
		t.Error("incorrect number of files present")
	}

	buf := bytes.NewBuffer([]byte{})
	num, err := builder.WriteTo(buf)
	if err != nil {
		t.Error(err)
	}
	if num != int64(buf.Len()) {
		t.Errorf("reported %d bytes, wrote %d", num, buf.Len())
	}
	if !bytes.HasPrefix(buf.Bytes(), Magic[:]) {
		t.Error("archive does not start with magic")
	}

	if err := builder.Close(); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(builder.tempDir); !os.IsNotExist(err) {
		t.Error("temporary directory was not removed")
	}
	if _, err := builder.WriteTo(buf); err != ErrClosed {
		t.Error("expected closed builder to refuse writing")
	}
}

func TestOffsetsAreContiguous(t *testing.T) {
	builder, err := NewBuilder(Header{Version: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	for _, name := range []string{"a", "b", "c"} {
		if err := builder.Add(name, bytes.NewReader(bytes.Repeat([]byte(name), 100))); err != nil {
			t.Fatal(err)
		}
	}

	buf := bytes.NewBuffer([]byte{})
	if _, err := builder.WriteTo(buf); err != nil {
		t.Fatal(err)
	}

	size, err := binaryToint64(buf.Bytes()[MagicLength : MagicLength+HeaderSizeNumberLength])
	if err != nil {
		t.Fatal(err)
	}
	var header Header
	if err := gobDecode(&header, buf.Bytes()[MagicLength+HeaderSizeNumberLength:dataOffset(size)]); err != nil {
		t.Fatal(err)
	}

	var next int64
	for _, e := range header.Index {
		if e.Offset != next {
			t.Errorf("entry %s at %d, expected %d", e.Name, e.Offset, next)
		}
		if e.Size != 100 {
			t.Errorf("entry %s has size %d", e.Name, e.Size)
		}
		next += e.CompressedSize
	}
	if dataOffset(size)+next != int64(buf.Len()) {
		t.Error("data section does not end at end of archive")
	}
}

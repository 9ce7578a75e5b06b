package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWAV_EncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	src := &Buffer{
		Data:       []int16{0, 100, -100, 32767, -32768, 42},
		SampleRate: 24000,
		Channels:   1,
	}
	var b bytes.Buffer
	if err := EncodeWAV(&b, src); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	got, err := DecodeWAV(&b)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if got.SampleRate != 24000 || got.Channels != 1 {
		t.Errorf("format = %d Hz / %d ch, want 24000/1", got.SampleRate, got.Channels)
	}
	if len(got.Data) != len(src.Data) {
		t.Fatalf("got %d samples, want %d", len(got.Data), len(src.Data))
	}
	for i := range src.Data {
		if got.Data[i] != src.Data[i] {
			t.Fatalf("sample %d = %d, want %d", i, got.Data[i], src.Data[i])
		}
	}
}

func TestWAV_SkipsUnknownChunks(t *testing.T) {
	t.Parallel()
	var b bytes.Buffer
	if err := EncodeWAV(&b, &Buffer{Data: []int16{1, 2}, SampleRate: 48000, Channels: 2}); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	raw := b.Bytes()

	// Splice a LIST chunk with an odd payload between fmt and data to check
	// both skipping and even-byte padding.
	list := make([]byte, 8+3+1)
	copy(list[0:4], "LIST")
	binary.LittleEndian.PutUint32(list[4:8], 3)
	spliced := append(append(append([]byte{}, raw[:36]...), list...), raw[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	got, err := DecodeWAV(bytes.NewReader(spliced))
	if err != nil {
		t.Fatalf("DecodeWAV with LIST chunk: %v", err)
	}
	if len(got.Data) != 2 || got.Data[0] != 1 || got.Data[1] != 2 {
		t.Errorf("Data = %v, want [1 2]", got.Data)
	}
}

func TestWAV_RejectsNonPCM(t *testing.T) {
	t.Parallel()
	var b bytes.Buffer
	if err := EncodeWAV(&b, &Buffer{Data: []int16{0}, SampleRate: 8000, Channels: 1}); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	raw := b.Bytes()
	binary.LittleEndian.PutUint16(raw[20:22], 3) // IEEE float

	_, err := DecodeWAV(bytes.NewReader(raw))
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("DecodeWAV(float wav) = %v, want unsupported format error", err)
	}
}

func TestWAV_RejectsGarbage(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not riff", []byte("OGGSxxxxxxxxxxxxxxxxxxxx")},
		{"riff no data chunk", append([]byte("RIFF\x04\x00\x00\x00WAVE"), nil...)},
		{"truncated fmt chunk", []byte("RIFF\x14\x00\x00\x00WAVEfmt \x08\x00\x00\x00\x01\x00\x01\x00\x80\xbb\x00\x00")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeWAV(bytes.NewReader(tc.data)); err == nil {
				t.Error("DecodeWAV succeeded, want error")
			}
		})
	}
}

func TestWAVSink_PatchesHeaderOnClose(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.wav")
	sink := NewWAVSink(path, 48000)
	if err := sink.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sink.WriteFrame([]int16{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	buf, err := DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if buf.SampleRate != 48000 || buf.Channels != 2 {
		t.Errorf("format = %d Hz / %d ch, want 48000/2", buf.SampleRate, buf.Channels)
	}
	if len(buf.Data) != 4 {
		t.Errorf("got %d samples, want 4", len(buf.Data))
	}
}

func TestWAVSink_WriteBeforeStartFails(t *testing.T) {
	t.Parallel()
	sink := NewWAVSink(filepath.Join(t.TempDir(), "out.wav"), 48000)
	if err := sink.WriteFrame([]int16{0}); err == nil {
		t.Error("WriteFrame before Start succeeded, want error")
	}
}

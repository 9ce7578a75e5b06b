package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// wavHeaderSize is the byte length of the canonical RIFF/fmt/data preamble.
const wavHeaderSize = 44

// DecodeWAV parses a RIFF PCM16 WAV stream into a [Buffer]. Only uncompressed
// 16-bit PCM is supported; compressed formats return an error so that callers
// can skip the asset and report it.
func DecodeWAV(r io.Reader) (*Buffer, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("audio: read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, errors.New("audio: not a RIFF/WAVE stream")
	}

	var (
		sampleRate int
		channels   int
		haveFmt    bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, errors.New("audio: wav has no data chunk")
			}
			return nil, fmt.Errorf("audio: read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := int(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("audio: fmt chunk truncated (%d bytes)", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("audio: read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("audio: unsupported wav format %d/%d-bit (want PCM/16)", format, bits)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, errors.New("audio: wav data chunk before fmt chunk")
			}
			pcm := make([]byte, size)
			if _, err := io.ReadFull(r, pcm); err != nil {
				return nil, fmt.Errorf("audio: read data chunk: %w", err)
			}
			return &Buffer{
				Data:       BytesToSamples(pcm),
				SampleRate: sampleRate,
				Channels:   channels,
			}, nil
		default:
			// Skip unknown chunks (LIST, fact, ...). Chunk sizes are padded
			// to even byte counts.
			skip := int64(size + size%2)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("audio: skip %q chunk: %w", id, err)
			}
		}
	}
}

// EncodeWAV writes buf as a RIFF PCM16 WAV stream.
func EncodeWAV(w io.Writer, buf *Buffer) error {
	data := SamplesToBytes(buf.Data)
	if _, err := w.Write(encodeWAVHeader(len(data), buf.SampleRate, buf.Channels)); err != nil {
		return fmt.Errorf("audio: write wav header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("audio: write wav data: %w", err)
	}
	return nil
}

// encodeWAVHeader builds the 44-byte RIFF/fmt/data preamble for dataBytes of
// PCM16 payload.
func encodeWAVHeader(dataBytes, sampleRate, channels int) []byte {
	h := make([]byte, wavHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataBytes))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(h[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(h[34:36], 16)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataBytes))
	return h
}

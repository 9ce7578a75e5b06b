package audio

import (
	"fmt"
	"log/slog"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Convert returns a copy of buf in the target format, resampling and
// channel-converting as needed. If buf already matches the target it is
// returned unchanged (zero allocation). Conversion order: channels first,
// then sample rate, so the resampler runs at the target channel count.
func Convert(buf *Buffer, target Format) (*Buffer, error) {
	if buf.SampleRate == target.SampleRate && buf.Channels == target.Channels {
		return buf, nil
	}

	data := buf.Data
	channels := buf.Channels
	if channels != target.Channels {
		switch {
		case channels == 1 && target.Channels == 2:
			data = monoToStereo(data)
		case channels == 2 && target.Channels == 1:
			data = stereoToMono(data)
		default:
			return nil, fmt.Errorf("audio: unsupported channel conversion %d -> %d", channels, target.Channels)
		}
		channels = target.Channels
	}

	if buf.SampleRate != target.SampleRate {
		resampled, err := resample(data, channels, buf.SampleRate, target.SampleRate)
		if err != nil {
			return nil, err
		}
		data = resampled
	}

	return &Buffer{Data: data, SampleRate: target.SampleRate, Channels: channels}, nil
}

// MustConvert is Convert with a logged fallback: on conversion failure the
// original buffer is returned and a warning is logged. Playback at the wrong
// rate is preferable to dropping a narration entirely.
func MustConvert(buf *Buffer, target Format) *Buffer {
	out, err := Convert(buf, target)
	if err != nil {
		slog.Warn("audio conversion failed, using source format",
			"from_rate", buf.SampleRate, "to_rate", target.SampleRate, "err", err)
		return buf
	}
	return out
}

// resample converts interleaved int16 samples between rates using the
// band-limited resampler.
func resample(data []int16, channels, from, to int) ([]int16, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("audio: create resampler: %w", err)
	}

	input := make([]float64, len(data))
	for i, s := range data {
		input[i] = float64(s) / 32768
	}
	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("audio: resample %d -> %d Hz: %w", from, to, err)
	}

	out := make([]int16, len(output))
	for i, v := range output {
		out[i] = clampSample(v)
	}
	return out, nil
}

// monoToStereo duplicates each mono sample into an L+R pair.
func monoToStereo(data []int16) []int16 {
	out := make([]int16, len(data)*2)
	for i, s := range data {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

// stereoToMono averages each L+R pair into a single sample.
func stereoToMono(data []int16) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		l := int32(data[i*2])
		r := int32(data[i*2+1])
		out[i] = int16((l + r) / 2)
	}
	return out
}

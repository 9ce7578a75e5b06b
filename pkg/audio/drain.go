package audio

// Drain reads from ch until the channel is closed, discarding all values.
// Use this to prevent goroutine leaks when the data from a streaming channel
// (e.g. a provider's SynthesizeStream output) is no longer needed.
func Drain[T any](ch <-chan T) {
	for range ch {
	}
}

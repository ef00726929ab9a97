package publisher

import "github.com/atotto/clipboard"

// SystemClipboard writes to the clipboard of the machine running the
// assistant. On headless hosts WriteAll fails; callers ignore that.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

package receipt

import "fmt"

// FormatQueueNumber zero-pads to three digits. Larger numbers keep all
// their digits ("1000"), they are never truncated.
func FormatQueueNumber(n int64) string {
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%03d", n)
}

// Filename is the download name of a receipt.
func Filename(queueNumber int64) string {
	return fmt.Sprintf("Booking_%s.pdf", FormatQueueNumber(queueNumber))
}

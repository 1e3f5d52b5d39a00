package output

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// QRConfig configures QR code rendering.
type QRConfig struct {
	// Level is the error correction level.
	Level qr.Level
	// QuietZone is the number of empty blocks around the QR code.
	QuietZone int
	// HalfBlocks uses half-height blocks for a more compact display.
	HalfBlocks bool
	// Force renders even when the writer is not a terminal.
	Force bool
}

// DefaultQRConfig returns defaults for terminal rendering of payment URIs.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.M, // payment URIs are longer than bare addresses and get scanned off screens
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// CanRenderQR checks if the output writer is a terminal suitable for QR rendering.
func CanRenderQR(w io.Writer) bool {
	return IsTerminal(w)
}

// RenderQR renders data as a QR code. Without a terminal (and without Force)
// nothing is written and false is returned.
func RenderQR(w io.Writer, data string, cfg QRConfig) bool {
	if w == nil || (!cfg.Force && !CanRenderQR(w)) {
		return false
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return true
}

//go:build !linux || !cgo

package xkb

import "errors"

// NativeCompiler requires libxkbcommon; this build has no cgo support.
type NativeCompiler struct{}

func NewNativeCompiler() (*NativeCompiler, error) {
	return nil, errors.New("xkb: libxkbcommon support not built in")
}

func (c *NativeCompiler) Close() {}

func (c *NativeCompiler) Compile(text string) (Keymap, error) {
	return nil, errors.New("xkb: libxkbcommon support not built in")
}

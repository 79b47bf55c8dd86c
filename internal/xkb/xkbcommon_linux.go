//go:build linux && cgo

package xkb

/*
#cgo pkg-config: xkbcommon
#include <stdlib.h>
#include <xkbcommon/xkbcommon.h>
*/
import "C"

import (
	"errors"
	"runtime"
	"unsafe"
)

// NativeCompiler compiles keymap text with libxkbcommon.
type NativeCompiler struct {
	ctx *C.struct_xkb_context
}

// NewNativeCompiler creates a compiler backed by a fresh xkb context.
func NewNativeCompiler() (*NativeCompiler, error) {
	ctx := C.xkb_context_new(C.XKB_CONTEXT_NO_FLAGS)
	if ctx == nil {
		return nil, errors.New("xkb: xkb_context_new failed")
	}
	c := &NativeCompiler{ctx: ctx}
	runtime.SetFinalizer(c, (*NativeCompiler).Close)
	return c, nil
}

// Close releases the xkb context. Keymaps already compiled stay valid; they
// hold their own reference.
func (c *NativeCompiler) Close() {
	if c.ctx != nil {
		C.xkb_context_unref(c.ctx)
		c.ctx = nil
	}
}

// Compile implements Compiler.
func (c *NativeCompiler) Compile(text string) (Keymap, error) {
	if c.ctx == nil {
		return nil, errors.New("xkb: compiler is closed")
	}
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	km := C.xkb_keymap_new_from_string(c.ctx, ctext, C.XKB_KEYMAP_FORMAT_TEXT_V1, C.XKB_KEYMAP_COMPILE_NO_FLAGS)
	if km == nil {
		return nil, errors.New("xkb: keymap text rejected by compiler")
	}
	nk := &nativeKeymap{km: km}
	runtime.SetFinalizer(nk, func(nk *nativeKeymap) {
		C.xkb_keymap_unref(nk.km)
	})
	return nk, nil
}

type nativeKeymap struct {
	km *C.struct_xkb_keymap
}

// Text serializes the keymap back to XKB text v1, for forwarding to clients
// that want the layout itself rather than just events.
func (k *nativeKeymap) Text() string {
	cs := C.xkb_keymap_get_as_string(k.km, C.XKB_KEYMAP_FORMAT_TEXT_V1)
	if cs == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(cs))
	return C.GoString(cs)
}

func (k *nativeKeymap) MinKeycode() uint32 {
	return uint32(C.xkb_keymap_min_keycode(k.km))
}

func (k *nativeKeymap) MaxKeycode() uint32 {
	return uint32(C.xkb_keymap_max_keycode(k.km))
}

func (k *nativeKeymap) NumLayouts(keycode uint32) uint32 {
	return uint32(C.xkb_keymap_num_layouts_for_key(k.km, C.xkb_keycode_t(keycode)))
}

func (k *nativeKeymap) NumLevels(keycode, layout uint32) uint32 {
	return uint32(C.xkb_keymap_num_levels_for_key(k.km, C.xkb_keycode_t(keycode), C.xkb_layout_index_t(layout)))
}

func (k *nativeKeymap) Keysyms(keycode, layout, level uint32) []Keysym {
	var syms *C.xkb_keysym_t
	n := C.xkb_keymap_key_get_syms_by_level(k.km,
		C.xkb_keycode_t(keycode), C.xkb_layout_index_t(layout), C.xkb_level_index_t(level), &syms)
	if n <= 0 {
		return nil
	}
	out := make([]Keysym, int(n))
	for i, s := range unsafe.Slice(syms, int(n)) {
		out[i] = Keysym(s)
	}
	return out
}

func (k *nativeKeymap) LevelMasks(keycode, layout, level uint32) []ModMask {
	var masks [8]C.xkb_mod_mask_t
	n := C.xkb_keymap_key_get_mods_for_level(k.km,
		C.xkb_keycode_t(keycode), C.xkb_layout_index_t(layout), C.xkb_level_index_t(level),
		&masks[0], C.size_t(len(masks)))
	out := make([]ModMask, 0, int(n))
	for _, m := range masks[:int(n)] {
		out = append(out, ModMask(m))
	}
	return out
}

//go:build vnvheap_debug

package rom

// debugAssertLayout panics if userRAMOffset's formula disagrees with a
// freshly-computed alignment. Compiled out entirely unless the
// vnvheap_debug build tag is set, so it costs nothing in a release build.
func debugAssertLayout(h *metadataHeader) {
	want := h.ramOff + alignUp(headerSize, uint64(h.dataAlign))
	if h.userRAMOffset() != want {
		panic("rom: metadataHeader.userRAMOffset() disagrees with header+padding layout")
	}
}

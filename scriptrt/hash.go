package scriptrt

// NameHash returns the stable 64-bit hash used to key every generated
// dispatch table. The same function runs at build time (emitting table
// keys) and at runtime (looking members up by name), so the constants
// must never change between the two.
func NameHash(name string) uint64 {
	h := uint64(0xA0761D6478BD642F)
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= 0xE7037ED1A0B428DB
		h = mix64(h)
	}
	return mix64(h ^ uint64(len(name)))
}

// mix64 is a finalizer in the splitmix64 family.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

package murmur

import "testing"


func TestMurmur(t *testing.T) {
	t.Run("Test Hashing Is Deterministic", func(t *testing.T) {
		key := []byte("hello")
		seed := uint32(1)

		first := Murmur32(key, seed)
		second := Murmur32(key, seed)

		t.Log("hash:", first)
		if first != second {
			t.Errorf("hash is not deterministic for fixed (bytes, seed): first(%d), second(%d)", first, second)
		}
	})

	t.Run("Test Hashing Regression", func(t *testing.T) {
		expected := uint32(2730838749)
		actual := Murmur32([]byte("hello"), 1)

		if actual != expected {
			t.Errorf("hash regressed for (\"hello\", seed=1): actual(%d), expected(%d)", actual, expected)
		}
	})

	t.Run("Test Hashing Empty Input", func(t *testing.T) {
		expected := uint32(0)
		actual := Murmur32([]byte{}, 0)

		if actual != expected {
			t.Errorf("hash of empty input with seed 0 should be 0: actual(%d)", actual)
		}
	})

	t.Run("Test Hashing Differs By Seed", func(t *testing.T) {
		key := []byte("hello")

		h1 := Murmur32(key, 1)
		h2 := Murmur32(key, 2)

		if h1 == h2 {
			t.Errorf("expected different seeds to produce different hashes, both were: %d", h1)
		}
	})
}

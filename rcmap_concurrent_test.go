package rcmap

import "crypto/rand"
import "fmt"
import "sync"
import "testing"

const (
	numWriterGoroutines = 8
	concurrentInputSize = 20000
	writeChunkSize      = concurrentInputSize / numWriterGoroutines
)

type keyVal struct {
	Key   []byte
	Value []byte
}

func generateRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	for i := 0; i < length; i++ {
		randomBytes[i] = 'a' + (randomBytes[i] % 26)
	}

	return randomBytes, nil
}

// TestMapConcurrentFairness covers §8 property 8: given N goroutines each
// inserting M distinct keys concurrently, after all goroutines join, every
// N*M key is gettable. It then deletes everything concurrently and checks
// every key is gone, mirroring the teacher's PCMapConcurrent_test.go shape.
func TestMapConcurrentFairness(t *testing.T) {
	m := New(Options{})

	keyValPairs := make([]keyVal, concurrentInputSize)
	for idx := range keyValPairs {
		randomBytes, genErr := generateRandomBytes(32)
		if genErr != nil {
			t.Fatalf("error generating random bytes: %s", genErr.Error())
		}

		keyValPairs[idx] = keyVal{Key: randomBytes, Value: randomBytes}
	}

	t.Run("Test Concurrent Put", func(t *testing.T) {
		var insertWG sync.WaitGroup

		for w := 0; w < numWriterGoroutines; w++ {
			insertWG.Add(1)

			go func(chunk []keyVal) {
				defer insertWG.Done()

				for _, kv := range chunk {
					ok, putErr := m.Put(kv.Key, kv.Value)
					if putErr != nil {
						t.Errorf("error on put: %s", putErr.Error())
					}
					if !ok {
						t.Errorf("expected put to succeed")
					}
				}
			}(keyValPairs[w*writeChunkSize : (w+1)*writeChunkSize])
		}

		insertWG.Wait()
	})

	t.Run("Test Concurrent Get After Put", func(t *testing.T) {
		var getWG sync.WaitGroup

		for w := 0; w < numWriterGoroutines; w++ {
			getWG.Add(1)

			go func(chunk []keyVal) {
				defer getWG.Done()

				for _, kv := range chunk {
					val, found := m.Get(kv.Key)
					if !found {
						t.Errorf("expected key to be found after concurrent insert")
						continue
					}

					if string(val) != string(kv.Value) {
						t.Errorf("value mismatch after concurrent insert: actual(%s), expected(%s)", val, kv.Value)
					}
				}
			}(keyValPairs[w*writeChunkSize : (w+1)*writeChunkSize])
		}

		getWG.Wait()
	})

	if err := m.CheckInvariants(); err != nil {
		t.Fatalf("invariant check failed after concurrent inserts: %s", err.Error())
	}

	t.Run("Test Concurrent Delete", func(t *testing.T) {
		var delWG sync.WaitGroup

		for w := 0; w < numWriterGoroutines; w++ {
			delWG.Add(1)

			go func(chunk []keyVal) {
				defer delWG.Done()

				for _, kv := range chunk {
					deleted, delErr := m.Delete(kv.Key)
					if delErr != nil {
						t.Errorf("error on delete: %s", delErr.Error())
					}
					if !deleted {
						t.Errorf("expected delete of present key to succeed")
					}
				}
			}(keyValPairs[w*writeChunkSize : (w+1)*writeChunkSize])
		}

		delWG.Wait()
	})

	for _, kv := range keyValPairs {
		if _, found := m.Get(kv.Key); found {
			t.Errorf("expected key to be absent after concurrent delete")
		}
	}
}

// TestMapSnapshotConsistency covers §8 property 5: a reader doing Get on a
// fixed key concurrently with writers mutating unrelated keys must always
// observe a value that was actually committed for that key - never a torn
// or invalid read.
func TestMapSnapshotConsistency(t *testing.T) {
	m := New(Options{})
	watchedKey := []byte("watched-key")

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for w := 0; w < 4; w++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			i := 0
			for {
				select {
				case <-stop:
					return
				default:
				}

				k := []byte(fmt.Sprintf("writer-%d-key-%d", id, i))
				if _, putErr := m.Put(k, k); putErr != nil {
					t.Errorf("error putting unrelated key: %s", putErr.Error())
				}

				i++
			}
		}(w)
	}

	committed := make(chan []byte, 64)

	go func() {
		for v := 0; v < 200; v++ {
			val := []byte(fmt.Sprintf("version-%d", v))

			if _, putErr := m.Put(watchedKey, val); putErr != nil {
				t.Errorf("error putting watched key: %s", putErr.Error())
			}

			committed <- val
		}

		close(committed)
	}()

	lastSeen := ""
	for sent := range committed {
		val, found := m.Get(watchedKey)
		if !found {
			t.Errorf("expected watched key to be present once %q was committed", sent)
			continue
		}

		var seen, want int
		fmt.Sscanf(string(sent), "version-%d", &want)
		if _, scanErr := fmt.Sscanf(string(val), "version-%d", &seen); scanErr != nil || seen < want || seen >= 200 {
			t.Errorf("observed %q, which is not a committed version at or after %q", val, sent)
		}

		lastSeen = string(val)
	}

	close(stop)
	wg.Wait()

	finalVal, found := m.Get(watchedKey)
	if !found {
		t.Fatalf("expected watched key to be present at the end")
	}

	if string(finalVal) != "version-199" {
		t.Errorf("expected final committed value \"version-199\", got %q (last transiently observed %q)", finalVal, lastSeen)
	}
}

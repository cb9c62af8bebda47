package models

import "testing"

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	cases := []Record{
		{Timestamp: 1, Key: []byte("a"), Value: []byte("1")},
		{Timestamp: 123456789, Key: []byte("long-key-name"), Value: []byte("")},
		{Timestamp: 0, Key: []byte("x"), Tombstone: true},
	}

	for _, want := range cases {
		payload := want.Serialize()
		got, err := Deserialize(payload)
		if err != nil {
			t.Fatalf("Deserialize: %v", err)
		}

		if got.Timestamp != want.Timestamp {
			t.Errorf("timestamp: got %d, want %d", got.Timestamp, want.Timestamp)
		}
		if string(got.Key) != string(want.Key) {
			t.Errorf("key: got %q, want %q", got.Key, want.Key)
		}
		if got.Tombstone != want.Tombstone {
			t.Errorf("tombstone: got %v, want %v", got.Tombstone, want.Tombstone)
		}
		if !want.Tombstone && string(got.Value) != string(want.Value) {
			t.Errorf("value: got %q, want %q", got.Value, want.Value)
		}
	}
}

func TestDeserializeDetectsChecksumMismatch(t *testing.T) {
	payload := Record{Timestamp: 1, Key: []byte("a"), Value: []byte("1")}.Serialize()
	payload[0] ^= 0xFF // corrupt a byte inside the body, checksum trailer untouched

	_, err := Deserialize(payload)
	if err != ErrChecksumMismatch {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestDeserializeRejectsShortPayload(t *testing.T) {
	if _, err := Deserialize([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for a too-short payload")
	}
}

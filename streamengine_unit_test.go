package go_i2cp

import "testing"

// TestStreamStateString validates the human-readable name for every state,
// including the unknown fallback.
func TestStreamStateString(t *testing.T) {
	tests := []struct {
		state StreamState
		want  string
	}{
		{StreamStateInit, "INIT"},
		{StreamStateSynSent, "SYN_SENT"},
		{StreamStateEstablished, "ESTABLISHED"},
		{StreamStateClosing, "CLOSING"},
		{StreamStateClosed, "CLOSED"},
		{StreamState(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestRandomStreamIdNeverZero validates randomStreamId avoids the reserved
// all-zero stream id a SYN packet uses to mean "not yet assigned".
func TestRandomStreamIdNeverZero(t *testing.T) {
	crypto := NewCrypto()
	for i := 0; i < 1000; i++ {
		if id := randomStreamId(crypto); id == 0 {
			t.Fatal("randomStreamId returned 0")
		} else if id > 4_000_000_000 {
			t.Fatalf("randomStreamId returned out-of-range id %d", id)
		}
	}
}

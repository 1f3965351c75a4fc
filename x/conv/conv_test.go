package conv

import "testing"

func TestAppendUint(t *testing.T) {
	for _, c := range []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{10, "10"},
		{255, "255"},
		{18446744073709551615, "18446744073709551615"},
	} {
		if got := string(AppendUint(nil, c.n)); got != c.want {
			t.Fatalf("AppendUint(%d) = %q, want %q", c.n, got, c.want)
		}
	}
	if got := string(AppendUint([]byte("v"), 12)); got != "v12" {
		t.Fatalf("AppendUint prefix = %q", got)
	}
}

func TestHex8(t *testing.T) {
	for n, want := range map[uint8]string{0x00: "0x00", 0x20: "0x20", 0x23: "0x23", 0xAB: "0xab", 0xFF: "0xff"} {
		if got := Hex8(n); got != want {
			t.Fatalf("Hex8(%d) = %q, want %q", n, got, want)
		}
	}
}

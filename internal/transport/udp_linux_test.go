package transport

import (
	"context"
	"testing"
)

// 127.255.255.255 is the directed broadcast address of lo on Linux.
func TestBroadcast_PermissionPerMode(t *testing.T) {
	ctx := context.Background()
	dest := AddressInfo{IP: "127.255.255.255", Port: 9}

	b := NewBroadcast(Config{}, quietLogger())
	bh, err := b.Bind(ctx, loopback())
	if err != nil {
		t.Fatal(err)
	}
	defer bh.Close()
	if _, err := b.Send(bh, []byte("all"), dest); err != nil {
		t.Skipf("loopback broadcast unavailable: %v", err)
	}

	u := NewUnicast(Config{}, quietLogger())
	uh, err := u.Bind(ctx, loopback())
	if err != nil {
		t.Fatal(err)
	}
	defer uh.Close()
	if _, err := u.Send(uh, []byte("all"), dest); err == nil {
		t.Error("unicast socket sent to a broadcast address")
	}
}

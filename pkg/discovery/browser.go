package discovery

import (
	"context"
	"encoding/hex"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// DefaultBrowseTimeout bounds how long Browse waits when the caller's
// context carries no deadline.
const DefaultBrowseTimeout = 5 * time.Second

// Peer is a discovered object-secured CoAP endpoint.
type Peer struct {
	InstanceName string
	HostName     string
	Port         int
	IPs          []net.IP
	ContextID    []byte // from the cid=<hex> TXT entry, if present
}

// Browse discovers ServiceName instances on the network that
// advertise the oscore=1 TXT flag, returning a channel of peers that
// closes when ctx is done or the browse timeout elapses.
func Browse(ctx context.Context) (<-chan Peer, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}

	cancel := func() {}
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, DefaultBrowseTimeout)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	peers := make(chan Peer)

	go func() {
		defer cancel()
		defer close(peers)
		go func() {
			defer close(entries)
			_ = resolver.Browse(ctx, ServiceName, "local.", entries)
		}()
		for entry := range entries {
			peer, ok := peerFromEntry(entry)
			if !ok {
				continue
			}
			select {
			case peers <- peer:
			case <-ctx.Done():
				return
			}
		}
	}()

	return peers, nil
}

// peerFromEntry converts a zeroconf entry into a Peer, filtering out
// services that do not advertise the oscore=1 TXT flag.
func peerFromEntry(entry *zeroconf.ServiceEntry) (Peer, bool) {
	var cid []byte
	oscore := false

	for _, kv := range entry.Text {
		if kv == oscoreTXTKey {
			oscore = true
			continue
		}
		if rest, ok := cutPrefix(kv, "cid="); ok {
			if decoded, err := hex.DecodeString(rest); err == nil {
				cid = decoded
			}
		}
	}
	if !oscore {
		return Peer{}, false
	}

	ips := append([]net.IP(nil), entry.AddrIPv4...)
	ips = append(ips, entry.AddrIPv6...)

	return Peer{
		InstanceName: entry.Instance,
		HostName:     entry.HostName,
		Port:         entry.Port,
		IPs:          ips,
		ContextID:    cid,
	}, true
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// Package discovery advertises the ground relay's dashboard over mDNS so a
// host GUI on the local network can locate it without a preconfigured
// address.
//
// The ground relay registers itself as a "_fuellink._tcp" service. TXT
// records carry the node role, protocol version, and build version, so a
// browsing host can filter relays from unrelated services before connecting.
//
// # Usage Example
//
//	adv, err := discovery.Advertise("ground-relay", 8080, map[string]string{
//	    "role": "ground-relay",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Close()
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The host must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery

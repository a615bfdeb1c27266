package p2p

import (
	"net"

	"github.com/sirupsen/logrus"
)

const loopbackAddr = "127.0.0.1"

var preferredNets = []*net.IPNet{
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
}

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

// LocalAddress picks the IPv4 address to show to the user and to name key
// files after: 172.16.0.0/12 first, then 192.168.0.0/16, then any other
// non-loopback IPv4, else 127.0.0.1.
func LocalAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		logrus.Warnf("listing interface addresses failed: %s", err)
		return loopbackAddr
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok {
			ips = append(ips, ipnet.IP)
		}
	}
	return pickLocalAddress(ips)
}

func pickLocalAddress(ips []net.IP) string {
	var candidates []net.IP
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
			candidates = append(candidates, ip4)
		}
	}
	for _, pref := range preferredNets {
		for _, ip := range candidates {
			if pref.Contains(ip) {
				return ip.String()
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return loopbackAddr
}

// peerHost strips the port and any IPv4-mapped prefix from a remote address.
func peerHost(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return host
}

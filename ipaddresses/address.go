package ipaddresses

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const errInvalidIPAddrFmt = "invalid IP address: %s"
const errInvalidCIDRFmt = "invalid CIDR Notation: %s"

// ParseIPAddress is a utility function that converts IP address
// from octet notation (*.*.*.*) to its 32-bit unsigned integer value.
func ParseIPAddress(ipAddr string) (ip uint32, err error) {
	octets := strings.Split(ipAddr, ".")
	if len(octets) != 4 {
		err = fmt.Errorf(errInvalidIPAddrFmt, ipAddr)
		return
	}

	for _, octet := range octets {
		var b int

		if !decimalOctet(octet) {
			err = fmt.Errorf(errInvalidIPAddrFmt, ipAddr)
			return
		}

		b, err = strconv.Atoi(octet)
		if err != nil || b < 0 || b > 255 {
			err = fmt.Errorf(errInvalidIPAddrFmt, ipAddr)
			return
		}

		ip <<= 8
		ip |= uint32(b)
	}

	return ip, nil
}

// decimalOctet accepts 1 to 3 plain decimal digits without a leading zero.
func decimalOctet(s string) bool {
	if len(s) == 0 || len(s) > 3 || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ParseCIDR converts an IPv4 CIDR notation into a 32-bit unsigned integer
// prefix of an IP address space and its corresponding mask.
func ParseCIDR(cidr string) (prefix uint32, mask uint32, bits int, err error) {
	splitted := strings.Split(cidr, "/")
	if len(splitted) != 2 {
		err = fmt.Errorf(errInvalidCIDRFmt, cidr)
		return
	}

	ipAddr, suffix := splitted[0], splitted[1]
	ip, err := ParseIPAddress(ipAddr)
	if err != nil {
		err = fmt.Errorf(errInvalidCIDRFmt, cidr)
		return
	}

	bits, err = strconv.Atoi(suffix)
	if err != nil || bits < 0 || bits > 32 {
		err = fmt.Errorf(errInvalidCIDRFmt, cidr)
		return
	}

	// Shifting a uint32 by 32 yields 0, which is the correct mask for /0.
	mask = uint32(0xffffffff) << uint32(32-bits)
	prefix = ip & mask
	return
}

// ToOctets converts a 32-bit unsigned integer into a readable string in "*.*.*.*" format.
func ToOctets(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip))
}

// NormalizeAddress validates a single IP set entry and returns it in canonical CIDR form.
// A bare address becomes a host prefix (/32 or /128). Host bits below the prefix are cleared.
func NormalizeAddress(addr string) (normalized string, err error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		err = fmt.Errorf(errInvalidIPAddrFmt, addr)
		return
	}

	if strings.Contains(addr, ":") {
		return normalizeIPv6(addr)
	}

	if !strings.Contains(addr, "/") {
		addr += "/32"
	}

	prefix, _, bits, err := ParseCIDR(addr)
	if err != nil {
		return
	}

	normalized = ToOctets(prefix) + "/" + strconv.Itoa(bits)
	return
}

func normalizeIPv6(addr string) (normalized string, err error) {
	if !strings.Contains(addr, "/") {
		addr += "/128"
	}

	ip, ipNet, err := net.ParseCIDR(addr)
	if err != nil || ip.To4() != nil {
		err = fmt.Errorf(errInvalidCIDRFmt, addr)
		return
	}

	normalized = ipNet.String()
	return
}

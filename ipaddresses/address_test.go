package ipaddresses

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIPAddressGood(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	ipAddr := "192.168.0.1"
	ipRef := uint32(3232235521)

	// Act
	ipConverted, err := ParseIPAddress(ipAddr)

	// Assert
	assert.Nil(err)
	assert.Equal(ipRef, ipConverted)
}

// We are being strict about notation here.
// Disallowing "192.168.1" to be resolved as "192.168.0.1".
func TestParseIPAddressBad(t *testing.T) {
	assert := assert.New(t)

	for _, ipAddr := range []string{"10.0.0.0/8", "256.256.256.256", "0.0.0.0.0", "O.O.O.O", "192.168.1", "+1.0.0.1", "1.-0.0.1", "010.0.0.1", "1.2.3.00", "1..0.1", "1.0.0.0001"} {
		_, err := ParseIPAddress(ipAddr)
		assert.Error(err, ipAddr)
	}
}

func TestParseCIDRGood(t *testing.T) {
	assert := assert.New(t)

	// Act
	prefix, mask, bits, err := ParseCIDR("10.1.2.3/8")

	// Assert
	assert.Nil(err)
	assert.Equal(uint32(0x0a000000), prefix)
	assert.Equal(uint32(0xff000000), mask)
	assert.Equal(8, bits)
}

func TestParseCIDRZeroPrefix(t *testing.T) {
	assert := assert.New(t)

	// Act
	prefix, mask, bits, err := ParseCIDR("0.0.0.0/0")

	// Assert
	assert.Nil(err)
	assert.Equal(uint32(0), prefix)
	assert.Equal(uint32(0), mask)
	assert.Equal(0, bits)
}

// Again, we are being strict about notation here.
// Disallowing "10/8".
func TestParseCIDRBad(t *testing.T) {
	assert := assert.New(t)

	for _, cidr := range []string{"10.0.0.0", "10.0.0.0/16/8", "10.0.0.0/42", "10.0.0.0/eight", "10/8"} {
		_, _, _, err := ParseCIDR(cidr)
		assert.Error(err, cidr)
	}
}

func TestToOctets(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0.0.0.0", ToOctets(0))
	assert.Equal("10.0.0.1", ToOctets(0x0a000001))
	assert.Equal("255.255.255.255", ToOctets(0xffffffff))
}

func TestNormalizeAddress(t *testing.T) {
	assert := assert.New(t)

	type testcase struct {
		input    string
		expected string
	}
	tests := []testcase{
		{"192.168.0.1", "192.168.0.1/32"},
		{" 10.1.2.3/8 ", "10.0.0.0/8"},
		{"0.0.0.0/0", "0.0.0.0/0"},
		{"2001:db8::1", "2001:db8::1/128"},
		{"2001:db8:abcd::/32", "2001:db8::/32"},
		{"::/0", "::/0"},
	}

	for _, test := range tests {
		// Act
		normalized, err := NormalizeAddress(test.input)

		// Assert
		assert.Nil(err, test.input)
		assert.Equal(test.expected, normalized, test.input)
	}
}

func TestNormalizeAddressBad(t *testing.T) {
	assert := assert.New(t)

	for _, addr := range []string{"", "example.com", "10.0.0.0/33", "2001:db8::/129", "::ffff:10.0.0.1"} {
		_, err := NormalizeAddress(addr)
		assert.Error(err, addr)
	}
}

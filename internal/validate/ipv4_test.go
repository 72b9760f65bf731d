package validate

import "testing"

// TestIsIPv4_Valid tests addresses that must be accepted
func TestIsIPv4_Valid(t *testing.T) {
	tests := []string{
		"8.8.8.8",
		"1.1.1.1",
		"0.0.0.0",
		"255.255.255.255",
		"192.168.0.1",
		"010.001.0.1", // leading zeros still match the pattern
	}

	for _, ip := range tests {
		t.Run(ip, func(t *testing.T) {
			if !IsIPv4(ip) {
				t.Errorf("expected %q to be valid", ip)
			}
		})
	}
}

// TestIsIPv4_Invalid tests everything else
func TestIsIPv4_Invalid(t *testing.T) {
	tests := []struct {
		name string
		ip   string
	}{
		{"empty string", ""},
		{"octet out of range", "256.1.1.1"},
		{"last octet out of range", "1.1.1.300"},
		{"three octets", "8.8.8"},
		{"five octets", "1.2.3.4.5"},
		{"letters", "abc.def.ghi.jkl"},
		{"four digit group", "1000.1.1.1"},
		{"negative", "-1.1.1.1"},
		{"empty group", "1..1.1"},
		{"trailing dot", "1.1.1.1."},
		{"surrounding spaces", " 8.8.8.8 "},
		{"cidr", "10.0.0.0/8"},
		{"ipv6", "2001:4860:4860::8888"},
		{"free text", "hello"},
		{"unicode digits", "١.١.١.١"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsIPv4(tt.ip) {
				t.Errorf("expected %q to be invalid", tt.ip)
			}
		})
	}
}

// TestIsIPv4_EveryOctetBoundary tests 0 and 255 in each position
func TestIsIPv4_EveryOctetBoundary(t *testing.T) {
	for pos := 0; pos < 4; pos++ {
		ok := []string{"1", "1", "1", "1"}
		bad := []string{"1", "1", "1", "1"}
		ok[pos] = "255"
		bad[pos] = "256"

		okIP := ok[0] + "." + ok[1] + "." + ok[2] + "." + ok[3]
		badIP := bad[0] + "." + bad[1] + "." + bad[2] + "." + bad[3]

		if !IsIPv4(okIP) {
			t.Errorf("expected %s to be valid", okIP)
		}
		if IsIPv4(badIP) {
			t.Errorf("expected %s to be invalid", badIP)
		}
	}
}

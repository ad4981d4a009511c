package math

import (
	"math/big"
	"testing"
)

func TestBigInt(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{"TestParseUnits", testParseUnits},
		{"TestParseUnitsErrors", testParseUnitsErrors},
		{"TestFormatUnits", testFormatUnits},
		{"TestMulDiv", testMulDiv},
		{"TestPow10", testPow10},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.fn)
	}
}

func testParseUnits(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1000", 6, "1000000000"},
		{"2.0", 6, "2000000"},
		{"0.09", 6, "90000"},
		{".5", 2, "50"},
		{"-0.9", 6, "-900000"},
		{"1", 18, "1000000000000000000"},
		{"42", 0, "42"},
	}
	for _, c := range cases {
		got, err := ParseUnits(c.in, c.decimals)
		if err != nil {
			t.Fatalf("ParseUnits(%q, %d) error: %v", c.in, c.decimals, err)
		}
		if got.String() != c.want {
			t.Errorf("ParseUnits(%q, %d) = %s; want %s", c.in, c.decimals, got, c.want)
		}
	}
}

func testParseUnitsErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2345678", "1.", "1.2.3"} {
		if _, err := ParseUnits(in, 6); err == nil {
			t.Errorf("ParseUnits(%q, 6) succeeded; want error", in)
		}
	}
}

func testFormatUnits(t *testing.T) {
	cases := []struct {
		in       *big.Int
		decimals uint8
		want     string
	}{
		{big.NewInt(1000000000), 6, "1000"},
		{big.NewInt(2600000), 6, "2.6"},
		{big.NewInt(-900000), 6, "-0.9"},
		{big.NewInt(5), 6, "0.000005"},
		{big.NewInt(0), 6, "0"},
		{big.NewInt(123), 0, "123"},
		{nil, 6, "0"},
	}
	for _, c := range cases {
		if got := FormatUnits(c.in, c.decimals); got != c.want {
			t.Errorf("FormatUnits(%v, %d) = %s; want %s", c.in, c.decimals, got, c.want)
		}
	}
}

func testMulDiv(t *testing.T) {
	x := big.NewInt(1000000000)
	got := MulDiv(x, 9, 10000)
	if got.Int64() != 900000 {
		t.Errorf("MulDiv(1e9, 9, 10000) = %v; want 900000", got)
	}
	if x.Int64() != 1000000000 {
		t.Errorf("MulDiv mutated its input: %v", x)
	}
}

func testPow10(t *testing.T) {
	if got := Pow10(18).String(); got != "1000000000000000000" {
		t.Errorf("Pow10(18) = %s", got)
	}
	if got := Pow10(0).Int64(); got != 1 {
		t.Errorf("Pow10(0) = %d", got)
	}
}
